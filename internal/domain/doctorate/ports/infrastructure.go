// Package ports defines the interfaces (ports) for the doctorate bounded context.
package ports

import (
	"context"
	"time"
)

// Clock provides time-related functionality.
// This abstraction enables testing with controlled time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time in UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.At
}

// UnitOfWork provides transactional boundaries for commands.
// One command runs in exactly one Tx.
type UnitOfWork interface {
	// Begin starts a new transaction. It fails when ctx is already done.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an active unit of work. Aggregates saved through its repositories
// and staged outbox messages are written atomically on Commit. Versions of
// saved aggregates are bumped once the commit succeeds.
type Tx interface {
	Doctorates() DoctorateRepository
	SupervisionGroups() SupervisionGroupRepository
	Juries() JuryRepository
	ConfirmationPapers() ConfirmationPaperRepository
	Admissibilities() AdmissibilityRepository
	PrivateDefenses() PrivateDefenseRepository
	Authorizations() AuthorizationRepository
	Search() SearchIndex

	// NextSerial reserves the next doctorate serial number.
	NextSerial(ctx context.Context) (int, error)

	// Stage queues outbox messages written with the transaction.
	Stage(msgs ...OutboxMessage)

	// Commit persists every pending change.
	Commit(ctx context.Context) error

	// Rollback discards pending changes. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}
