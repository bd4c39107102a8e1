// Package entries declares the storage ports for ledger entries.
package entries

import (
	"context"
	"errors"

	"ledger/internal/core"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("entry not found")

// Ports for outbound adapters.
type (
	EntryWriter interface {
		// Create stores e and returns it with ID and CreatedAt assigned.
		Create(ctx context.Context, e core.Entry) (core.Entry, error)
	}

	EntryReader interface {
		// List returns every entry, newest date first.
		List(ctx context.Context) ([]core.Entry, error)
		Get(ctx context.Context, id string) (core.Entry, error)
	}

	EntryDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	Store interface {
		EntryWriter
		EntryReader
		EntryDeleter
	}

	// Mirror is a secondary copy of the ledger kept for people who read
	// it outside the application, such as a spreadsheet.
	Mirror interface {
		Append(ctx context.Context, e core.Entry) (rowRef string, err error)
		Remove(ctx context.Context, id string) error
	}
)
