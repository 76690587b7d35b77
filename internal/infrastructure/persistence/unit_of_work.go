package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// errInactive is returned by every operation on a finished unit of work.
var errInactive = fmt.Errorf("unit of work is not active")

// UnitOfWorkFactory starts units of work against a backend.
type UnitOfWorkFactory struct {
	backend Backend
	clock   ports.Clock
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory.
func NewUnitOfWorkFactory(backend Backend, clock ports.Clock) *UnitOfWorkFactory {
	if clock == nil {
		clock = ports.RealClock{}
	}
	return &UnitOfWorkFactory{backend: backend, clock: clock}
}

// Begin starts a new unit of work transaction.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (ports.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, dterrors.Wrap(err, dterrors.KindCanceled, "persistence.Begin", "transaction not started")
	}
	return &UnitOfWork{
		backend:        f.backend,
		clock:          f.clock,
		active:         true,
		loaded:         make(map[RecordKey]any),
		pendingWrites:  make(map[RecordKey]pendingWrite),
		pendingDeletes: make(map[RecordKey]struct{}),
		pendingRows:    make(map[string]listing.Row),
	}, nil
}

// pendingWrite is an aggregate staged for saving. The record is encoded at
// commit time so later mutations within the transaction are kept.
type pendingWrite struct {
	obj      any
	parentID string
	record   func() (Record, error)
	bump     func()
}

// UnitOfWork implements ports.Tx. It provides transactional semantics by
// deferring writes until commit and keeping an identity map of the
// aggregates it loaded.
type UnitOfWork struct {
	backend Backend
	clock   ports.Clock
	mu      sync.Mutex

	// Transaction state
	active          bool
	loaded          map[RecordKey]any
	pendingWrites   map[RecordKey]pendingWrite
	writeOrder      []RecordKey
	pendingDeletes  map[RecordKey]struct{}
	pendingRows     map[string]listing.Row
	pendingMessages []ports.OutboxMessage
}

// Doctorates returns the doctorate repository within this unit of work.
func (u *UnitOfWork) Doctorates() ports.DoctorateRepository {
	return repository[*domain.Doctorate, domain.DoctorateID]{uow: u, codec: doctorateCodec}
}

// SupervisionGroups returns the supervision group repository within this unit of work.
func (u *UnitOfWork) SupervisionGroups() ports.SupervisionGroupRepository {
	return repository[*domain.SupervisionGroup, domain.SupervisionGroupID]{uow: u, codec: supervisionGroupCodec}
}

// Juries returns the jury repository within this unit of work.
func (u *UnitOfWork) Juries() ports.JuryRepository {
	return repository[*domain.Jury, domain.JuryID]{uow: u, codec: juryCodec}
}

// ConfirmationPapers returns the confirmation paper repository within this unit of work.
func (u *UnitOfWork) ConfirmationPapers() ports.ConfirmationPaperRepository {
	return repository[*domain.ConfirmationPaper, domain.ConfirmationPaperID]{uow: u, codec: confirmationPaperCodec}
}

// Admissibilities returns the admissibility repository within this unit of work.
func (u *UnitOfWork) Admissibilities() ports.AdmissibilityRepository {
	return repository[*domain.Admissibility, domain.AdmissibilityID]{uow: u, codec: admissibilityCodec}
}

// PrivateDefenses returns the private defense repository within this unit of work.
func (u *UnitOfWork) PrivateDefenses() ports.PrivateDefenseRepository {
	return repository[*domain.PrivateDefense, domain.PrivateDefenseID]{uow: u, codec: privateDefenseCodec}
}

// Authorizations returns the authorization repository within this unit of work.
func (u *UnitOfWork) Authorizations() ports.AuthorizationRepository {
	return repository[*domain.ThesisDistributionAuthorization, domain.AuthorizationID]{uow: u, codec: authorizationCodec}
}

// Search returns the listing projection within this unit of work.
func (u *UnitOfWork) Search() ports.SearchIndex {
	return searchIndex{uow: u}
}

// NextSerial reserves the next doctorate serial.
func (u *UnitOfWork) NextSerial(ctx context.Context) (int, error) {
	u.mu.Lock()
	active := u.active
	u.mu.Unlock()
	if !active {
		return 0, errInactive
	}
	return u.backend.NextSerial(ctx)
}

// Stage queues outbox messages. Missing ids and timestamps are filled in.
func (u *UnitOfWork) Stage(msgs ...ports.OutboxMessage) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return
	}
	now := u.clock.Now()
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.Status = ports.StatusPending
		u.pendingMessages = append(u.pendingMessages, m)
	}
}

// Commit writes all pending changes in one backend batch, then bumps the
// version of every saved aggregate.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return errInactive
	}

	// Check for context cancellation before starting
	if err := ctx.Err(); err != nil {
		return dterrors.Wrap(err, dterrors.KindCanceled, "persistence.Commit", "commit aborted")
	}

	var b Batch
	for key := range u.pendingDeletes {
		b.Deletes = append(b.Deletes, key)
	}
	for _, key := range u.writeOrder {
		pw, ok := u.pendingWrites[key]
		if !ok {
			continue
		}
		rec, err := pw.record()
		if err != nil {
			return dterrors.InternalWrap(err, "persistence.Commit", "encode aggregate")
		}
		b.Puts = append(b.Puts, rec)
	}
	for _, row := range u.pendingRows {
		b.Rows = append(b.Rows, row)
	}
	b.Outbox = u.pendingMessages

	if err := u.backend.Apply(ctx, b); err != nil {
		return err
	}

	for _, key := range u.writeOrder {
		if pw, ok := u.pendingWrites[key]; ok {
			pw.bump()
		}
	}

	slog.Debug("unit of work committed",
		"records", len(b.Puts),
		"deletes", len(b.Deletes),
		"outbox_messages", len(b.Outbox))

	// Mark transaction as complete
	u.active = false
	u.clearPending()
	return nil
}

// Rollback discards all pending changes.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		// Already rolled back or committed, no-op
		return nil
	}
	u.active = false
	u.clearPending()
	return nil
}

// clearPending clears all pending operations.
func (u *UnitOfWork) clearPending() {
	u.loaded = make(map[RecordKey]any)
	u.pendingWrites = make(map[RecordKey]pendingWrite)
	u.writeOrder = nil
	u.pendingDeletes = make(map[RecordKey]struct{})
	u.pendingRows = make(map[string]listing.Row)
	u.pendingMessages = nil
}

// repository is a unit-of-work scoped repository of one aggregate type.
type repository[T any, ID ~string] struct {
	uow   *UnitOfWork
	codec codec[T]
}

func (r repository[T, ID]) notFound(id ID) error {
	return dterrors.NotFound("persistence.Get", fmt.Sprintf("%s %s not found", r.codec.kind, id))
}

// Get retrieves an aggregate, checking pending changes first.
func (r repository[T, ID]) Get(ctx context.Context, id ID) (T, error) {
	var zero T
	u := r.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return zero, errInactive
	}
	key := RecordKey{Kind: r.codec.kind, ID: string(id)}
	if _, deleted := u.pendingDeletes[key]; deleted {
		return zero, r.notFound(id)
	}
	if pw, ok := u.pendingWrites[key]; ok {
		return pw.obj.(T), nil
	}
	if obj, ok := u.loaded[key]; ok {
		return obj.(T), nil
	}

	rec, err := u.backend.Load(ctx, r.codec.kind, string(id))
	if err != nil {
		return zero, err
	}
	v, err := r.codec.decode(rec.Data, rec.Version)
	if err != nil {
		return zero, dterrors.InternalWrap(err, "persistence.Get", fmt.Sprintf("decode %s %s", r.codec.kind, id))
	}
	u.loaded[key] = v
	return v, nil
}

// Save stages an aggregate for saving on commit.
func (r repository[T, ID]) Save(_ context.Context, v T) error {
	u := r.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return errInactive
	}
	key := RecordKey{Kind: r.codec.kind, ID: r.codec.id(v)}
	delete(u.pendingDeletes, key)
	if _, staged := u.pendingWrites[key]; !staged {
		u.writeOrder = append(u.writeOrder, key)
	}
	c := r.codec
	u.pendingWrites[key] = pendingWrite{
		obj:      v,
		parentID: c.parent(v),
		record:   func() (Record, error) { return c.record(v) },
		bump:     func() { c.setVersion(v, c.version(v)+1) },
	}
	u.loaded[key] = v
	return nil
}

// Delete stages an aggregate for deletion on commit.
func (r repository[T, ID]) Delete(_ context.Context, id ID) error {
	u := r.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return errInactive
	}
	key := RecordKey{Kind: r.codec.kind, ID: string(id)}
	delete(u.pendingWrites, key)
	delete(u.loaded, key)
	u.pendingDeletes[key] = struct{}{}
	return nil
}

// ListByDoctorate returns the aggregates owned by a doctorate, stored ones
// first in insertion order, then the ones staged in this transaction.
func (r repository[T, ID]) ListByDoctorate(ctx context.Context, id domain.DoctorateID) ([]T, error) {
	u := r.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return nil, errInactive
	}
	recs, err := u.backend.List(ctx, r.codec.kind, string(id))
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(recs))
	seen := make(map[RecordKey]bool, len(recs))
	for _, rec := range recs {
		key := RecordKey{Kind: rec.Kind, ID: rec.ID}
		seen[key] = true
		if _, deleted := u.pendingDeletes[key]; deleted {
			continue
		}
		if pw, ok := u.pendingWrites[key]; ok {
			result = append(result, pw.obj.(T))
			continue
		}
		if obj, ok := u.loaded[key]; ok {
			result = append(result, obj.(T))
			continue
		}
		v, err := r.codec.decode(rec.Data, rec.Version)
		if err != nil {
			return nil, dterrors.InternalWrap(err, "persistence.ListByDoctorate", fmt.Sprintf("decode %s %s", rec.Kind, rec.ID))
		}
		u.loaded[key] = v
		result = append(result, v)
	}

	// Add staged aggregates not stored yet
	for _, key := range u.writeOrder {
		pw, ok := u.pendingWrites[key]
		if !ok || seen[key] || key.Kind != r.codec.kind || pw.parentID != string(id) {
			continue
		}
		result = append(result, pw.obj.(T))
	}
	return result, nil
}

// searchIndex is the unit-of-work scoped listing projection.
type searchIndex struct {
	uow *UnitOfWork
}

// Upsert stages a projection row.
func (s searchIndex) Upsert(_ context.Context, row listing.Row) error {
	s.uow.mu.Lock()
	defer s.uow.mu.Unlock()

	if !s.uow.active {
		return errInactive
	}
	s.uow.pendingRows[row.ID] = row
	return nil
}

// Rows returns the stored projection overlaid with staged rows.
func (s searchIndex) Rows(ctx context.Context) ([]listing.Row, error) {
	u := s.uow
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.active {
		return nil, errInactive
	}
	rows, err := u.backend.Rows(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		seen[r.ID] = true
		if staged, ok := u.pendingRows[r.ID]; ok {
			rows[i] = staged
		}
	}
	for id, r := range u.pendingRows {
		if !seen[id] {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// Ensure UnitOfWork implements the ports.Tx interface.
var (
	_ ports.Tx         = (*UnitOfWork)(nil)
	_ ports.UnitOfWork = (*UnitOfWorkFactory)(nil)
)
