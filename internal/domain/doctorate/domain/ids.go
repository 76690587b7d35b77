// Package domain provides the core domain model of a doctoral trajectory.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DoctorateID uniquely identifies a doctoral trajectory.
type DoctorateID string

// SupervisionGroupID identifies a supervision group.
type SupervisionGroupID string

// JuryID identifies a jury.
type JuryID string

// ConfirmationPaperID identifies a confirmation paper.
type ConfirmationPaperID string

// AdmissibilityID identifies an admissibility review.
type AdmissibilityID string

// PrivateDefenseID identifies a private defense.
type PrivateDefenseID string

// AuthorizationID identifies a thesis-distribution authorization.
type AuthorizationID string

// SignatoryID identifies a signatory inside a signature group.
type SignatoryID string

// NewDoctorateID returns a random doctorate identifier.
func NewDoctorateID() DoctorateID { return DoctorateID(uuid.NewString()) }

// NewSupervisionGroupID returns a random supervision group identifier.
func NewSupervisionGroupID() SupervisionGroupID { return SupervisionGroupID(uuid.NewString()) }

// NewJuryID returns a random jury identifier.
func NewJuryID() JuryID { return JuryID(uuid.NewString()) }

// NewConfirmationPaperID returns a random confirmation paper identifier.
func NewConfirmationPaperID() ConfirmationPaperID { return ConfirmationPaperID(uuid.NewString()) }

// NewAdmissibilityID returns a random admissibility identifier.
func NewAdmissibilityID() AdmissibilityID { return AdmissibilityID(uuid.NewString()) }

// NewPrivateDefenseID returns a random private defense identifier.
func NewPrivateDefenseID() PrivateDefenseID { return PrivateDefenseID(uuid.NewString()) }

// NewAuthorizationID returns a random authorization identifier.
func NewAuthorizationID() AuthorizationID { return AuthorizationID(uuid.NewString()) }

// NewSignatoryID returns a random signatory identifier.
func NewSignatoryID() SignatoryID { return SignatoryID(uuid.NewString()) }

// Date truncates t to a calendar day in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returned by pointer, for optional fields.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
