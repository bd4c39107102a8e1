package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by EntryMessage.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// EntryMessage asks the worker to mirror or unmirror one entry. It carries
// only the id; the worker reads the entry itself so messages never go stale.
type EntryMessage struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Version   int64     `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id string, version int64) *EntryMessage {
	return &EntryMessage{Op: OpSync, ID: id, Version: version, Timestamp: time.Now()}
}

func NewEntryDeleteMessage(id string) *EntryMessage {
	return &EntryMessage{Op: OpDelete, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *EntryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryMessageFromJSON decodes and checks a message body.
func EntryMessageFromJSON(data []byte) (*EntryMessage, error) {
	var msg EntryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op != OpSync && msg.Op != OpDelete {
		return nil, fmt.Errorf("unknown operation %q", msg.Op)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message without entry id")
	}
	return &msg, nil
}
