package domain

import (
	"time"
)

// DomainEvent is the interface for all domain events.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() DoctorateID
}

// DoctorateInitializedEvent is emitted when a doctorate is created from an admission.
type DoctorateInitializedEvent struct {
	DoctorateID DoctorateID
	Reference   string
	At          time.Time
}

func (e *DoctorateInitializedEvent) EventName() string        { return "doctorate.initialized" }
func (e *DoctorateInitializedEvent) OccurredAt() time.Time    { return e.At }
func (e *DoctorateInitializedEvent) AggregateID() DoctorateID { return e.DoctorateID }

// ActionAppliedEvent is emitted for every business action applied to a
// doctorate, whether or not the status moved.
type ActionAppliedEvent struct {
	DoctorateID DoctorateID
	Action      Action
	Phase       string
	From        DoctorateStatus
	To          DoctorateStatus
	Tags        []string
	Actor       string
	At          time.Time
}

// EventName distinguishes status changes from in-place actions.
func (e *ActionAppliedEvent) EventName() string {
	if e.StatusChanged() {
		return "doctorate.status_changed"
	}
	return "doctorate.action_applied"
}

func (e *ActionAppliedEvent) OccurredAt() time.Time    { return e.At }
func (e *ActionAppliedEvent) AggregateID() DoctorateID { return e.DoctorateID }

// StatusChanged reports whether the action moved the status.
func (e *ActionAppliedEvent) StatusChanged() bool {
	return e.From != e.To
}
