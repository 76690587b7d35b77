package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// MemoryBackend keeps everything in process memory. It backs the tests and
// the memory storage driver.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[RecordKey]Record
	order   map[RecordKey]int64
	insert  int64
	serial  int
	rows    map[string]listing.Row
	outbox  []ports.OutboxMessage
	seq     int64
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[RecordKey]Record),
		order:   make(map[RecordKey]int64),
		rows:    make(map[string]listing.Row),
	}
}

// Load returns one record.
func (m *MemoryBackend) Load(ctx context.Context, kind Kind, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[RecordKey{Kind: kind, ID: id}]
	if !ok {
		return Record{}, dterrors.NotFound("persistence.Load", fmt.Sprintf("%s %s not found", kind, id))
	}
	return copyRecord(rec), nil
}

// List returns the records of kind owned by parentID in insertion order.
func (m *MemoryBackend) List(ctx context.Context, kind Kind, parentID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for key, rec := range m.records {
		if key.Kind == kind && rec.ParentID == parentID {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return m.order[RecordKey{Kind: kind, ID: out[i].ID}] < m.order[RecordKey{Kind: kind, ID: out[j].ID}]
	})
	return out, nil
}

// Apply checks every version first and only then writes, so a conflicting
// batch leaves nothing behind.
func (m *MemoryBackend) Apply(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range b.Puts {
		stored := m.records[RecordKey{Kind: rec.Kind, ID: rec.ID}].Version
		if stored != rec.Version {
			return dterrors.ConcurrentModification("persistence.Apply", rec.ID, rec.Version, stored)
		}
	}

	for _, key := range b.Deletes {
		delete(m.records, key)
		delete(m.order, key)
	}
	for _, rec := range b.Puts {
		key := RecordKey{Kind: rec.Kind, ID: rec.ID}
		if _, exists := m.order[key]; !exists {
			m.insert++
			m.order[key] = m.insert
		}
		rec = copyRecord(rec)
		rec.Version++
		m.records[key] = rec
	}
	for _, row := range b.Rows {
		m.rows[row.ID] = row
	}
	for _, msg := range b.Outbox {
		m.seq++
		msg.Seq = m.seq
		m.outbox = append(m.outbox, msg)
	}
	return nil
}

// NextSerial reserves a doctorate serial.
func (m *MemoryBackend) NextSerial(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serial++
	return m.serial, nil
}

// Rows returns the search projection.
func (m *MemoryBackend) Rows(ctx context.Context) ([]listing.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]listing.Row, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out, nil
}

// Pending returns up to limit pending messages in sequence order.
func (m *MemoryBackend) Pending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	return m.byStatus(ctx, ports.StatusPending, limit)
}

// Failed returns the messages flagged as failed.
func (m *MemoryBackend) Failed(ctx context.Context) ([]ports.OutboxMessage, error) {
	return m.byStatus(ctx, ports.StatusFailed, 0)
}

func (m *MemoryBackend) byStatus(ctx context.Context, status ports.MessageStatus, limit int) ([]ports.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ports.OutboxMessage
	for _, msg := range m.outbox {
		if msg.Status != status {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkDelivered flags a message as delivered after attempts tries.
func (m *MemoryBackend) MarkDelivered(ctx context.Context, id string, attempts int) error {
	return m.update(ctx, id, func(msg *ports.OutboxMessage) {
		msg.Status = ports.StatusDelivered
		msg.Attempts = attempts
		msg.LastError = ""
	})
}

// MarkFailed flags a message as failed after attempts tries.
func (m *MemoryBackend) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	return m.update(ctx, id, func(msg *ports.OutboxMessage) {
		msg.Status = ports.StatusFailed
		msg.Attempts = attempts
		msg.LastError = lastError
	})
}

func (m *MemoryBackend) update(ctx context.Context, id string, fn func(*ports.OutboxMessage)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.outbox {
		if m.outbox[i].ID == id {
			fn(&m.outbox[i])
			return nil
		}
	}
	return dterrors.NotFound("persistence.MarkOutbox", fmt.Sprintf("outbox message %s not found", id))
}

// Close is a no-op.
func (m *MemoryBackend) Close() error {
	return nil
}

func copyRecord(r Record) Record {
	r.Data = append([]byte(nil), r.Data...)
	return r
}

// Ensure MemoryBackend implements Backend.
var _ Backend = (*MemoryBackend)(nil)
