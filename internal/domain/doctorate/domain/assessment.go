package domain

import (
	"time"
)

// teacherNoticeDays is how long before a private defense teachers must have
// encoded the assessments.
const teacherNoticeDays = 2

// EncodingPeriod is the window in which assessment results are encoded.
type EncodingPeriod struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the period, bounds included.
func (p EncodingPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// AssessmentCalendar holds the dates deciding when an assessment
// enrollment can still be withdrawn freely.
type AssessmentCalendar struct {
	Period             *EncodingPeriod
	PrivateDefenseDate *time.Time
}

// IsLateUnenrollment reports whether withdrawing on today is late. The
// encoding period wins, then the indicative private-defense date; without
// both, nothing is late.
func (c AssessmentCalendar) IsLateUnenrollment(today time.Time) bool {
	switch {
	case c.Period != nil:
		return !today.Before(c.Period.Start)
	case c.PrivateDefenseDate != nil:
		return !today.Before(*c.PrivateDefenseDate)
	default:
		return false
	}
}

// IsLateEnrollment reports whether enrolling on today is late. It follows
// the same boundary as withdrawing.
func (c AssessmentCalendar) IsLateEnrollment(today time.Time) bool {
	return c.IsLateUnenrollment(today)
}

// TeacherDeadline returns the date by which teachers must encode the
// result: two days before a private defense held during the encoding
// period or without one, else the end of the period.
func (c AssessmentCalendar) TeacherDeadline() *time.Time {
	if c.PrivateDefenseDate != nil && (c.Period == nil || c.Period.Contains(*c.PrivateDefenseDate)) {
		d := c.PrivateDefenseDate.AddDate(0, 0, -teacherNoticeDays)
		return &d
	}
	if c.Period != nil {
		end := c.Period.End
		return &end
	}
	return nil
}
