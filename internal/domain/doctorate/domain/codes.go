package domain

import (
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

func rule(code, message string) *dterrors.BusinessError {
	return dterrors.NewBusinessError(code, message)
}

// Doctorate and supervision rules.
var (
	ErrDoctorateNotFound              = rule("PARCOURS-DOCTORAL-1", "doctorate not found")
	ErrPromoterNotFound               = rule("PARCOURS-DOCTORAL-2", "promoter not found")
	ErrCAMemberNotFound               = rule("PARCOURS-DOCTORAL-3", "CA member not found")
	ErrSignatoryNotFound              = rule("PARCOURS-DOCTORAL-4", "signatory not found")
	ErrSignatoryAlreadyInvited        = rule("PARCOURS-DOCTORAL-5", "signatory already invited")
	ErrSignatoryNotInvited            = rule("PARCOURS-DOCTORAL-6", "signatory is not invited")
	ErrMemberInternalOrExternal       = rule("PARCOURS-DOCTORAL-7", "a member is either internal or external")
	ErrAlreadyMember                  = rule("PARCOURS-DOCTORAL-8", "person is already a member of the supervision group")
	ErrSignatureRequestNotStarted     = rule("PARCOURS-DOCTORAL-9", "signature request has not been started")
	ErrNotApprovedByPromoter          = rule("PARCOURS-DOCTORAL-10", "not approved by every promoter")
	ErrNotApprovedByCAMembers         = rule("PARCOURS-DOCTORAL-11", "not approved by every CA member")
	ErrMissingPromoter                = rule("PARCOURS-DOCTORAL-12", "at least one promoter is required")
	ErrMissingCAMember                = rule("PARCOURS-DOCTORAL-13", "at least two CA members are required")
	ErrSignatureRequestStarted        = rule("PARCOURS-DOCTORAL-14", "signatures have already been requested")
	ErrNotWaitingForSignature         = rule("PARCOURS-DOCTORAL-15", "doctorate is not waiting for signatures")
	ErrMissingReferencePromoter       = rule("PARCOURS-DOCTORAL-16", "a reference promoter is required")
	ErrPromotersFull                  = rule("PARCOURS-DOCTORAL-17", "the supervision group already has the maximum number of promoters")
	ErrCAMembersFull                  = rule("PARCOURS-DOCTORAL-18", "the supervision group already has the maximum number of CA members")
	ErrSupervisionGroupNotFound       = rule("PARCOURS-DOCTORAL-19", "supervision group not found")
	ErrProjectIncomplete              = rule("PARCOURS-DOCTORAL-20", "the doctoral project is incomplete")
	ErrCotutelleIncomplete            = rule("PARCOURS-DOCTORAL-21", "the cotutelle information is incomplete")
	ErrCotutelleWithoutExternal       = rule("PARCOURS-DOCTORAL-22", "a cotutelle requires at least one external promoter")
	ErrFundingInconsistent            = rule("PARCOURS-DOCTORAL-23", "the funding information is inconsistent with its type")
	ErrActionNotAllowedInStatus       = rule("PARCOURS-DOCTORAL-24", "the action is not allowed in the current status")
	ErrSupervisionRefusalReasonAbsent = rule("PARCOURS-DOCTORAL-25", "a refusal reason is required")
	ErrExternalMemberIncomplete       = rule("PARCOURS-DOCTORAL-26", "external member requires a name and an email")
	ErrEmailSubjectMissing            = rule("PARCOURS-DOCTORAL-27", "the email subject is required")
	ErrEmailBodyMissing               = rule("PARCOURS-DOCTORAL-28", "the email body is required")
	ErrUnknownAction                  = rule("PARCOURS-DOCTORAL-29", "unknown action")
	ErrNotExternalMember              = rule("PARCOURS-DOCTORAL-30", "only external members can be modified")
	ErrApprovalDocumentMissing        = rule("PARCOURS-DOCTORAL-31", "a signed approval document is required")
)

// Confirmation paper rules.
var (
	ErrConfirmationPaperNotFound     = rule("EPREUVE-CONFIRMATION-1", "no active confirmation paper")
	ErrConfirmationDateMissing       = rule("EPREUVE-CONFIRMATION-2", "the confirmation date is required")
	ErrResearchReportMissing         = rule("EPREUVE-CONFIRMATION-3", "the research report is required")
	ErrConfirmationDeadlineMissing   = rule("EPREUVE-CONFIRMATION-4", "the confirmation paper has no deadline")
	ErrExtensionRequestIncomplete    = rule("EPREUVE-CONFIRMATION-5", "the extension request requires a new deadline, a justification and a letter")
	ErrConfirmationDatesInconsistent = rule("EPREUVE-CONFIRMATION-6", "confirmation date, deadline and extended deadline are out of order")
	ErrNewDeadlineMissing            = rule("EPREUVE-CONFIRMATION-7", "a new deadline is required for a retake")
	ErrConfirmationDocsMissing       = rule("EPREUVE-CONFIRMATION-8", "the supervisor panel report is required")
)

// Jury rules.
var (
	ErrJuryNotEnoughMembers         = rule("JURY-1", "the jury does not have enough members")
	ErrDefenseMethodIncomplete      = rule("JURY-2", "the defense method is incomplete")
	ErrJuryNoExternalMember         = rule("JURY-3", "the jury must include an external member")
	ErrJurySignatoryNotFound        = rule("JURY-4", "jury signatory not found")
	ErrJurySignatoryAlreadyInvited  = rule("JURY-5", "jury signatory already invited")
	ErrJurySignatoryNotInvited      = rule("JURY-6", "jury signatory is not invited")
	ErrPromoterPresident            = rule("JURY-7", "a promoter cannot preside the jury")
	ErrJuryMemberNotFound           = rule("JURY-8", "jury member not found")
	ErrJuryNotFound                 = rule("JURY-9", "jury not found")
	ErrPromoterRemoved              = rule("JURY-10", "a promoter cannot be removed from the jury")
	ErrPromoterModified             = rule("JURY-11", "a promoter must be modified through the supervision group")
	ErrNonDoctorWithoutJustified    = rule("JURY-12", "a non-doctor member requires a justification")
	ErrExternalWithoutInstitution   = rule("JURY-13", "an external member requires an institution")
	ErrExternalWithoutCountry       = rule("JURY-14", "an external member requires a country")
	ErrExternalWithoutLastName      = rule("JURY-15", "an external member requires a last name")
	ErrExternalWithoutFirstName     = rule("JURY-16", "an external member requires a first name")
	ErrExternalWithoutTitle         = rule("JURY-17", "an external member requires a title")
	ErrExternalWithoutGender        = rule("JURY-18", "an external member requires a gender")
	ErrExternalWithoutEmail         = rule("JURY-19", "an external member requires an email")
	ErrAlreadyInJury                = rule("JURY-20", "person is already a member of the jury")
	ErrRolesNotAssigned             = rule("JURY-25", "the jury requires a president and a secretary")
	ErrAuthorNotCDD                 = rule("JURY-26", "the author is not a manager of the CDD")
	ErrAuthorNotADRE                = rule("JURY-27", "the author is not an ADRE manager")
	ErrNotAJuryMember               = rule("JURY-28", "the signatory is not a jury member")
	ErrExternalWithoutLanguage      = rule("JURY-29", "an external member requires a contact language")
	ErrTooManyRoles                 = rule("JURY-30", "president and secretary are singleton roles")
	ErrJuryRefusalReasonUnspecified = rule("JURY-31", "a refusal reason is required")
	ErrJuryLocked                   = rule("JURY-32", "the jury is locked while signatures are in progress")
)

// Admissibility rules.
var (
	ErrAdmissibilityNotFound      = rule("RECEVABILITE-1", "no current admissibility")
	ErrAdmissibilityIncomplete    = rule("RECEVABILITE-2", "the admissibility requires a decision date and a manuscript submission date")
	ErrAdmissibilityMinutesAbsent = rule("RECEVABILITE-3", "the admissibility minutes are required")
	ErrAdmissibilityNotActive     = rule("RECEVABILITE-4", "the admissibility is not the current one")
)

// Private defense rules.
var (
	ErrPrivateDefenseNotFound             = rule("DEFENSE-PRIVEE-1", "no current private defense")
	ErrPrivateDefenseIncomplete           = rule("DEFENSE-PRIVEE-2", "the private defense requires minutes and a date")
	ErrPrivateDefenseNotActive            = rule("DEFENSE-PRIVEE-3", "the private defense is not the current one")
	ErrStatusNotPrivateDefenseSubmitted   = rule("DEFENSE-PRIVEE-4", "the doctorate status must be private defense submitted")
	ErrStatusNotPrivateDefenseAuthorized  = rule("DEFENSE-PRIVEE-5", "the doctorate status must be private defense authorized")
	ErrPrivateDefenseSubmissionIncomplete = rule("DEFENSE-PRIVEE-6", "the private defense requires a date, a place and a manuscript submission date")
	ErrDefenseFormulaMismatch             = rule("DEFENSE-PRIVEE-7", "the defense formula does not match the requested authorization")
)

// Public defense rules.
var (
	ErrPublicDefenseIncomplete          = rule("SOUTENANCE-PUBLIQUE-1", "the public defense requires a language, a date and an announcement photo")
	ErrPublicDefenseNotInProgress       = rule("SOUTENANCE-PUBLIQUE-2", "the public defense step is not in progress")
	ErrStatusNotPublicDefenseSubmitted  = rule("SOUTENANCE-PUBLIQUE-3", "the doctorate status must be public defense submitted")
	ErrStatusNotPublicDefenseAuthorized = rule("SOUTENANCE-PUBLIQUE-4", "the doctorate status must be public defense authorized")
	ErrPublicDefenseDecisionIncomplete  = rule("SOUTENANCE-PUBLIQUE-5", "the public defense requires minutes and a date")
)

// Thesis-distribution authorization rules.
var (
	ErrFundingSourcesMissing      = rule("AUTORISATION-DIFFUSION-THESE-1", "funding sources are required")
	ErrEnglishAbstractMissing     = rule("AUTORISATION-DIFFUSION-THESE-2", "the english abstract is required")
	ErrRedactionLanguageMissing   = rule("AUTORISATION-DIFFUSION-THESE-3", "the redaction language is required")
	ErrKeywordsMissing            = rule("AUTORISATION-DIFFUSION-THESE-4", "keywords are required")
	ErrConditionsMissing          = rule("AUTORISATION-DIFFUSION-THESE-5", "distribution conditions are required")
	ErrEmbargoDateMissing         = rule("AUTORISATION-DIFFUSION-THESE-6", "the embargo date is required for an embargo")
	ErrConditionsNotAccepted      = rule("AUTORISATION-DIFFUSION-THESE-7", "distribution conditions must be accepted")
	ErrAuthorizationNotFound      = rule("AUTORISATION-DIFFUSION-THESE-8", "thesis-distribution authorization not found")
	ErrAuthorizationReasonMissing = rule("AUTORISATION-DIFFUSION-THESE-9", "a refusal reason is required")
	ErrAuthorizationStatus        = rule("AUTORISATION-DIFFUSION-THESE-10", "the authorization status does not allow this action")
	ErrAuthorizationSignatory     = rule("AUTORISATION-DIFFUSION-THESE-11", "the caller is not the expected signatory")
	ErrEmbargoDateUnexpected      = rule("AUTORISATION-DIFFUSION-THESE-12", "an embargo date is only allowed for an embargo")
)
