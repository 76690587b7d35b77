package persistence

import (
	"context"

	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

// RecordKey identifies a stored record.
type RecordKey struct {
	Kind Kind
	ID   string
}

// Batch is everything one transaction writes. Each record carries the
// version it was loaded with; the backend stores it with that version plus
// one and rejects the whole batch when the stored version differs.
type Batch struct {
	Puts    []Record
	Deletes []RecordKey
	Rows    []listing.Row
	Outbox  []ports.OutboxMessage
}

// Backend is a storage engine the unit of work commits to.
type Backend interface {
	// Load returns a KindNotFound error when no record matches.
	Load(ctx context.Context, kind Kind, id string) (Record, error)
	// List returns the records of kind owned by parentID in insertion order.
	List(ctx context.Context, kind Kind, parentID string) ([]Record, error)
	// Apply writes a batch atomically.
	Apply(ctx context.Context, b Batch) error
	// NextSerial reserves a doctorate serial. Reserved serials are never
	// handed out twice, even when the transaction that asked rolls back.
	NextSerial(ctx context.Context) (int, error)
	// Rows returns the search projection.
	Rows(ctx context.Context) ([]listing.Row, error)

	ports.OutboxStore

	Close() error
}
