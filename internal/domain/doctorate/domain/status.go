package domain

import (
	"fmt"
)

// DoctorateStatus is the workflow status of a doctoral trajectory.
type DoctorateStatus string

// Doctorate statuses.
const (
	StatusAdmitted                       DoctorateStatus = "ADMITTED"
	StatusWaitingForSignature            DoctorateStatus = "WAITING_FOR_SIGNATURE"
	StatusConfirmationSubmitted          DoctorateStatus = "CONFIRMATION_SUBMITTED"
	StatusConfirmationSucceeded          DoctorateStatus = "CONFIRMATION_SUCCEEDED"
	StatusConfirmationToRepeat           DoctorateStatus = "CONFIRMATION_TO_REPEAT"
	StatusNotAuthorizedToContinue        DoctorateStatus = "NOT_AUTHORIZED_TO_CONTINUE"
	StatusJurySubmitted                  DoctorateStatus = "JURY_SUBMITTED"
	StatusJuryApprovedCA                 DoctorateStatus = "JURY_APPROVED_CA"
	StatusJuryApprovedCDD                DoctorateStatus = "JURY_APPROVED_CDD"
	StatusJuryRejectedCDD                DoctorateStatus = "JURY_REJECTED_CDD"
	StatusJuryApprovedADRE               DoctorateStatus = "JURY_APPROVED_ADRE"
	StatusJuryRejectedADRE               DoctorateStatus = "JURY_REJECTED_ADRE"
	StatusAdmissibilitySubmitted         DoctorateStatus = "ADMISSIBILITY_SUBMITTED"
	StatusAdmissibilitySucceeded         DoctorateStatus = "ADMISSIBILITY_SUCCEEDED"
	StatusAdmissibilityToRepeat          DoctorateStatus = "ADMISSIBILITY_TO_REPEAT"
	StatusPrivateDefenseSubmitted        DoctorateStatus = "PRIVATE_DEFENSE_SUBMITTED"
	StatusPrivateDefenseAuthorized       DoctorateStatus = "PRIVATE_DEFENSE_AUTHORIZED"
	StatusPrivateDefenseToRepeat         DoctorateStatus = "PRIVATE_DEFENSE_TO_REPEAT"
	StatusPrivateDefenseSucceeded        DoctorateStatus = "PRIVATE_DEFENSE_SUCCEEDED"
	StatusPrivateDefenseFailed           DoctorateStatus = "PRIVATE_DEFENSE_FAILED"
	StatusDefenseAndSoutenanceAuthorized DoctorateStatus = "DEFENSE_AND_SOUTENANCE_AUTHORIZED"
	StatusPublicDefenseSubmitted         DoctorateStatus = "PUBLIC_DEFENSE_SUBMITTED"
	StatusPublicDefenseAuthorized        DoctorateStatus = "PUBLIC_DEFENSE_AUTHORIZED"
	StatusProclaimed                     DoctorateStatus = "PROCLAIMED"
	StatusAbandon                        DoctorateStatus = "ABANDON"
)

var allStatuses = []DoctorateStatus{
	StatusAdmitted,
	StatusWaitingForSignature,
	StatusConfirmationSubmitted,
	StatusConfirmationSucceeded,
	StatusConfirmationToRepeat,
	StatusNotAuthorizedToContinue,
	StatusJurySubmitted,
	StatusJuryApprovedCA,
	StatusJuryApprovedCDD,
	StatusJuryRejectedCDD,
	StatusJuryApprovedADRE,
	StatusJuryRejectedADRE,
	StatusAdmissibilitySubmitted,
	StatusAdmissibilitySucceeded,
	StatusAdmissibilityToRepeat,
	StatusPrivateDefenseSubmitted,
	StatusPrivateDefenseAuthorized,
	StatusPrivateDefenseToRepeat,
	StatusPrivateDefenseSucceeded,
	StatusPrivateDefenseFailed,
	StatusDefenseAndSoutenanceAuthorized,
	StatusPublicDefenseSubmitted,
	StatusPublicDefenseAuthorized,
	StatusProclaimed,
	StatusAbandon,
}

// AllStatuses returns every status in workflow order.
func AllStatuses() []DoctorateStatus {
	out := make([]DoctorateStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// String returns the string representation of the status.
func (s DoctorateStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known.
func (s DoctorateStatus) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsFinal returns true when no action other than queries applies.
func (s DoctorateStatus) IsFinal() bool {
	switch s {
	case StatusProclaimed, StatusAbandon, StatusNotAuthorizedToContinue, StatusPrivateDefenseFailed:
		return true
	default:
		return false
	}
}

// InConfirmation returns true while the confirmation paper is the active phase.
func (s DoctorateStatus) InConfirmation() bool {
	switch s {
	case StatusAdmitted, StatusWaitingForSignature, StatusConfirmationSubmitted, StatusConfirmationToRepeat:
		return true
	default:
		return false
	}
}

// Phase returns the history tag of the phase the status belongs to.
func (s DoctorateStatus) Phase() string {
	switch s {
	case StatusAdmitted, StatusWaitingForSignature:
		return "supervision"
	case StatusConfirmationSubmitted, StatusConfirmationSucceeded, StatusConfirmationToRepeat, StatusNotAuthorizedToContinue:
		return "confirmation"
	case StatusJurySubmitted, StatusJuryApprovedCA, StatusJuryApprovedCDD, StatusJuryRejectedCDD,
		StatusJuryApprovedADRE, StatusJuryRejectedADRE:
		return "jury"
	case StatusAdmissibilitySubmitted, StatusAdmissibilitySucceeded, StatusAdmissibilityToRepeat:
		return "admissibility"
	case StatusPrivateDefenseSubmitted, StatusPrivateDefenseAuthorized, StatusPrivateDefenseToRepeat,
		StatusPrivateDefenseSucceeded, StatusPrivateDefenseFailed, StatusDefenseAndSoutenanceAuthorized:
		return "private-defense"
	case StatusPublicDefenseSubmitted, StatusPublicDefenseAuthorized, StatusProclaimed:
		return "public-defense"
	default:
		return "doctorate"
	}
}

// Description returns a human-readable description of the status.
func (s DoctorateStatus) Description() string {
	switch s {
	case StatusAdmitted:
		return "Admitted, supervision group being composed"
	case StatusWaitingForSignature:
		return "Waiting for supervision signatures"
	case StatusConfirmationSubmitted:
		return "Confirmation paper submitted"
	case StatusConfirmationSucceeded:
		return "Confirmation paper passed"
	case StatusConfirmationToRepeat:
		return "Confirmation paper to be repeated"
	case StatusNotAuthorizedToContinue:
		return "Not authorized to continue"
	case StatusJurySubmitted:
		return "Jury submitted for signature"
	case StatusJuryApprovedCA:
		return "Jury approved by its members"
	case StatusJuryApprovedCDD:
		return "Jury approved by the CDD"
	case StatusJuryRejectedCDD:
		return "Jury rejected by the CDD"
	case StatusJuryApprovedADRE:
		return "Jury approved by the ADRE"
	case StatusJuryRejectedADRE:
		return "Jury rejected by the ADRE"
	case StatusAdmissibilitySubmitted:
		return "Admissibility submitted"
	case StatusAdmissibilitySucceeded:
		return "Manuscript admissible"
	case StatusAdmissibilityToRepeat:
		return "Admissibility to be repeated"
	case StatusPrivateDefenseSubmitted:
		return "Private defense submitted"
	case StatusPrivateDefenseAuthorized:
		return "Private defense authorized"
	case StatusPrivateDefenseToRepeat:
		return "Private defense to be repeated"
	case StatusPrivateDefenseSucceeded:
		return "Private defense passed"
	case StatusPrivateDefenseFailed:
		return "Private defense failed"
	case StatusDefenseAndSoutenanceAuthorized:
		return "Combined private and public defense authorized"
	case StatusPublicDefenseSubmitted:
		return "Public defense submitted"
	case StatusPublicDefenseAuthorized:
		return "Public defense authorized"
	case StatusProclaimed:
		return "Proclaimed"
	case StatusAbandon:
		return "Abandoned"
	default:
		return "Unknown status"
	}
}

// ParseDoctorateStatus parses a string into a DoctorateStatus.
func ParseDoctorateStatus(s string) (DoctorateStatus, error) {
	status := DoctorateStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid doctorate status: %s", s)
	}
	return status, nil
}

// CanTransitionTo reports whether any action leads from s to target.
func (s DoctorateStatus) CanTransitionTo(target DoctorateStatus) bool {
	for _, t := range transitions {
		if t.To != target || !t.allowsFrom(s) {
			continue
		}
		return true
	}
	return false
}
