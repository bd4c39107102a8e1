package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should open after max failures")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should be half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatal("state should be half-open")
	}
	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("a failure while half-open should reopen the circuit")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishEntrySync(context.Background(), "abc", 1)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	client.recordSuccess()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishEntryDelete(ctx, "abc"); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	if err := client.PublishEntryDelete(context.Background(), "abc"); err == nil || !strings.Contains(err.Error(), "channel not open") {
		t.Fatalf("err = %v, want channel not open", err)
	}
}

func TestEntryMessages(t *testing.T) {
	msg := NewEntrySyncMessage("abc", 2)
	if msg.Op != OpSync || msg.ID != "abc" || msg.Version != 2 || msg.Timestamp.IsZero() {
		t.Fatalf("sync message = %+v", msg)
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := EntryMessageFromJSON(body)
	if err != nil || parsed.ID != "abc" || parsed.Op != OpSync {
		t.Fatalf("parsed = %+v, %v", parsed, err)
	}

	for _, bad := range []string{`{"op":"sync"}`, `{"op":"rename","id":"x"}`, `{`} {
		if _, err := EntryMessageFromJSON([]byte(bad)); err == nil {
			t.Errorf("EntryMessageFromJSON(%s) should fail", bad)
		}
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	body, _ := NewEntryDeleteMessage("abc").ToJSON()

	var seen *EntryMessage
	ok := func(_ context.Context, m *EntryMessage) error { seen = m; return nil }
	if got := dispatch(ctx, body, ok); got != ack || seen == nil || seen.Op != OpDelete {
		t.Fatalf("dispatch ok = %d, seen = %+v", got, seen)
	}

	failing := func(context.Context, *EntryMessage) error { return errors.New("sheets down") }
	if got := dispatch(ctx, body, failing); got != nackRequeue {
		t.Fatalf("dispatch failing = %d", got)
	}

	if got := dispatch(ctx, []byte("garbage"), ok); got != nackDrop {
		t.Fatalf("dispatch garbage = %d", got)
	}
}
