// Package doctorate provides the use cases of the doctoral trajectory:
// commands changing a doctorate and queries reading it back.
package doctorate

import (
	"strings"
	"time"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
)

// Command is a request to change one doctorate. Name is the stable action
// name used in history and on the HTTP surface.
type Command interface {
	Name() string
	Doctorate() domain.DoctorateID
}

// Target names the doctorate a command applies to.
type Target struct {
	DoctorateID domain.DoctorateID `json:"-"`
}

// Doctorate returns the targeted doctorate.
func (t Target) Doctorate() domain.DoctorateID { return t.DoctorateID }

func (t *Target) retarget(id domain.DoctorateID) { t.DoctorateID = id }

// On targets the doctorate id.
func On(id domain.DoctorateID) Target { return Target{DoctorateID: id} }

// InitializeDoctorate opens the trajectory of an admitted student.
type InitializeDoctorate struct {
	Student    domain.Student
	Training   domain.Training
	AdmittedAt time.Time
}

// NameInitializeDoctorate is the name of InitializeDoctorate.
const NameInitializeDoctorate = "initialize_doctorate"

func (InitializeDoctorate) Name() string                  { return NameInitializeDoctorate }
func (InitializeDoctorate) Doctorate() domain.DoctorateID { return "" }

// Doctorate data.

type ModifyProject struct {
	Target
	Project domain.Project
}

type ModifyFunding struct {
	Target
	Funding domain.Funding
}

type ModifyCotutelle struct {
	Target
	Cotutelle domain.Cotutelle
}

type ModifyJuryPreparation struct {
	Target
	JuryPreparation domain.JuryPreparation
}

type SendMessageToStudent struct {
	Target
	Message domain.Message
}

type Abandon struct {
	Target
}

func (ModifyProject) Name() string         { return string(domain.ActionModifyProject) }
func (ModifyFunding) Name() string         { return string(domain.ActionModifyFunding) }
func (ModifyCotutelle) Name() string       { return string(domain.ActionModifyCotutelle) }
func (ModifyJuryPreparation) Name() string { return string(domain.ActionModifyJuryPreparation) }
func (SendMessageToStudent) Name() string  { return string(domain.ActionSendMessageToStudent) }
func (Abandon) Name() string               { return string(domain.ActionAbandon) }

// Supervision.

// IdentifySupervisionMember adds a promoter or CA member, internal when
// PersonID is set, external otherwise.
type IdentifySupervisionMember struct {
	Target
	Role     domain.SupervisionRole
	PersonID string
	External *domain.ExternalPerson
}

type ModifySupervisionMember struct {
	Target
	SignatoryID domain.SignatoryID
	External    domain.ExternalPerson
}

type RemoveSupervisionMember struct {
	Target
	SignatoryID domain.SignatoryID
}

type DesignateReferencePromoter struct {
	Target
	SignatoryID domain.SignatoryID
}

type RequestSignatures struct {
	Target
}

type ResendSupervisionInvitation struct {
	Target
	SignatoryID domain.SignatoryID
}

type ApproveSupervisionMember struct {
	Target
	SignatoryID     domain.SignatoryID
	InternalComment string
	ExternalComment string
}

type ApproveSupervisionMemberByPDF struct {
	Target
	SignatoryID domain.SignatoryID
	PDF         []string
}

type DeclineSupervisionMember struct {
	Target
	SignatoryID     domain.SignatoryID
	Reason          string
	InternalComment string
	ExternalComment string
}

type ResetSupervisionSignatures struct {
	Target
}

func (IdentifySupervisionMember) Name() string {
	return string(domain.ActionIdentifySupervisionMember)
}
func (ModifySupervisionMember) Name() string { return string(domain.ActionModifySupervisionMember) }
func (RemoveSupervisionMember) Name() string { return string(domain.ActionRemoveSupervisionMember) }
func (DesignateReferencePromoter) Name() string {
	return string(domain.ActionDesignateReferencePromoter)
}
func (RequestSignatures) Name() string             { return string(domain.ActionRequestSignatures) }
func (ResendSupervisionInvitation) Name() string   { return string(domain.ActionResendSupervisionInvite) }
func (ApproveSupervisionMember) Name() string      { return string(domain.ActionApproveMember) }
func (ApproveSupervisionMemberByPDF) Name() string { return string(domain.ActionApproveMemberByPDF) }
func (DeclineSupervisionMember) Name() string      { return string(domain.ActionDeclineMember) }
func (ResetSupervisionSignatures) Name() string {
	return string(domain.ActionResetSupervisionSignatures)
}

// Confirmation.

type SubmitConfirmation struct {
	Target
	Date           *time.Time
	ResearchReport []string
}

type ModifyConfirmation struct {
	Target
	Date     *time.Time
	Deadline *time.Time
}

type SubmitExtensionRequest struct {
	Target
	NewDeadline   *time.Time
	Justification string
	Letter        []string
}

type RecordCDDOpinion struct {
	Target
	Opinion string
}

type CompleteConfirmation struct {
	Target
	SupervisorPanelReport         []string
	ResearchMandateRenewalOpinion []string
}

type ConfirmSuccess struct {
	Target
}

type ConfirmFailure struct {
	Target
	Message domain.Message
}

// ConfirmRetake deactivates the active paper and opens a new one due at
// NewDeadline.
type ConfirmRetake struct {
	Target
	Message     domain.Message
	NewDeadline *time.Time
}

// RecordConfirmationCertificate stores the certificate generated after a
// confirmation decision.
type RecordConfirmationCertificate struct {
	Target
	Certificate []string
}

func (SubmitConfirmation) Name() string     { return string(domain.ActionSubmitConfirmation) }
func (ModifyConfirmation) Name() string     { return string(domain.ActionModifyConfirmation) }
func (SubmitExtensionRequest) Name() string { return string(domain.ActionSubmitExtensionRequest) }
func (RecordCDDOpinion) Name() string       { return string(domain.ActionRecordCDDOpinion) }
func (CompleteConfirmation) Name() string   { return string(domain.ActionCompleteConfirmation) }
func (ConfirmSuccess) Name() string         { return string(domain.ActionConfirmSuccess) }
func (ConfirmFailure) Name() string         { return string(domain.ActionConfirmFailure) }
func (ConfirmRetake) Name() string          { return string(domain.ActionConfirmRetake) }
func (RecordConfirmationCertificate) Name() string {
	return string(domain.ActionRecordConfirmationCertified)
}

// Jury.

type AddJuryMember struct {
	Target
	Role     domain.JuryRole
	PersonID string
	External *domain.ExternalPerson
}

type ModifyJuryMember struct {
	Target
	SignatoryID domain.SignatoryID
	PersonID    string
	External    *domain.ExternalPerson
}

type RemoveJuryMember struct {
	Target
	SignatoryID domain.SignatoryID
}

type ModifyJuryMemberRole struct {
	Target
	SignatoryID domain.SignatoryID
	Role        domain.JuryRole
}

type SubmitJury struct {
	Target
}

type ResendJuryInvitation struct {
	Target
	SignatoryID domain.SignatoryID
}

type ApproveJuryMember struct {
	Target
	SignatoryID     domain.SignatoryID
	InternalComment string
	ExternalComment string
}

type ApproveJuryMemberByPDF struct {
	Target
	SignatoryID domain.SignatoryID
	PDF         []string
}

type DeclineJuryMember struct {
	Target
	SignatoryID     domain.SignatoryID
	Reason          string
	InternalComment string
	ExternalComment string
}

type ResetJurySignatures struct {
	Target
}

type ApproveJuryByCDD struct {
	Target
	Comment string
}

type RejectJuryByCDD struct {
	Target
	Reason          string
	InternalComment string
	ExternalComment string
}

type ApproveJuryByADRE struct {
	Target
	Comment string
}

type RejectJuryByADRE struct {
	Target
	Reason          string
	InternalComment string
	ExternalComment string
}

func (AddJuryMember) Name() string          { return string(domain.ActionAddJuryMember) }
func (ModifyJuryMember) Name() string       { return string(domain.ActionModifyJuryMember) }
func (RemoveJuryMember) Name() string       { return string(domain.ActionRemoveJuryMember) }
func (ModifyJuryMemberRole) Name() string   { return string(domain.ActionModifyJuryMemberRole) }
func (SubmitJury) Name() string             { return string(domain.ActionSubmitJury) }
func (ResendJuryInvitation) Name() string   { return string(domain.ActionResendJuryInvite) }
func (ApproveJuryMember) Name() string      { return string(domain.ActionApproveJuryMember) }
func (ApproveJuryMemberByPDF) Name() string { return string(domain.ActionApproveJuryMemberPDF) }
func (DeclineJuryMember) Name() string      { return string(domain.ActionDeclineJuryMember) }
func (ResetJurySignatures) Name() string    { return string(domain.ActionResetJurySignatures) }
func (ApproveJuryByCDD) Name() string       { return string(domain.ActionApproveJuryCDD) }
func (RejectJuryByCDD) Name() string        { return string(domain.ActionRejectJuryCDD) }
func (ApproveJuryByADRE) Name() string      { return string(domain.ActionApproveJuryADRE) }
func (RejectJuryByADRE) Name() string       { return string(domain.ActionRejectJuryADRE) }

// Admissibility.

type ModifyAdmissibility struct {
	Target
	DecisionDate             *time.Time
	ThesisExamBoardOpinion   []string
	ManuscriptSubmissionDate *time.Time
}

type SubmitAdmissibility struct {
	Target
}

type SubmitAdmissibilityMinutes struct {
	Target
	Minutes []string
}

type AdmissibilitySuccess struct {
	Target
}

type AdmissibilityRepeat struct {
	Target
	Message domain.Message
}

func (ModifyAdmissibility) Name() string        { return string(domain.ActionModifyAdmissibility) }
func (SubmitAdmissibility) Name() string        { return string(domain.ActionSubmitAdmissibility) }
func (SubmitAdmissibilityMinutes) Name() string { return string(domain.ActionSubmitAdmissibilityMinutes) }
func (AdmissibilitySuccess) Name() string       { return string(domain.ActionAdmissibilitySuccess) }
func (AdmissibilityRepeat) Name() string        { return string(domain.ActionAdmissibilityRepeat) }

// Private defense.

type ModifyPrivateDefense struct {
	Target
	At                       *time.Time
	Place                    string
	ManuscriptSubmissionDate *time.Time
}

type SubmitPrivateDefense struct {
	Target
}

type AuthorisePrivateDefense struct {
	Target
	Message domain.Message
}

type AuthorisePrivateAndPublicDefense struct {
	Target
	Message domain.Message
}

type InviteJuryToPrivateDefense struct {
	Target
}

type SubmitPrivateDefenseMinutes struct {
	Target
	Minutes []string
}

type PrivateDefenseSuccess struct {
	Target
}

type PrivateDefenseFail struct {
	Target
	Message domain.Message
}

type PrivateDefenseRepeat struct {
	Target
	Message domain.Message
}

type SubmitCombinedMinutes struct {
	Target
	Minutes []string
}

type CombinedDefenseSuccess struct {
	Target
}

type CombinedDefenseFailure struct {
	Target
	Message domain.Message
}

func (ModifyPrivateDefense) Name() string    { return string(domain.ActionModifyPrivateDefense) }
func (SubmitPrivateDefense) Name() string    { return string(domain.ActionSubmitPrivateDefense) }
func (AuthorisePrivateDefense) Name() string { return string(domain.ActionAuthorisePrivateDefense) }
func (AuthorisePrivateAndPublicDefense) Name() string {
	return string(domain.ActionAuthorisePrivateAndPublic)
}
func (InviteJuryToPrivateDefense) Name() string {
	return string(domain.ActionInviteJuryToPrivateDefense)
}
func (SubmitPrivateDefenseMinutes) Name() string {
	return string(domain.ActionSubmitPrivateDefenseMinutes)
}
func (PrivateDefenseSuccess) Name() string  { return string(domain.ActionPrivateDefenseSuccess) }
func (PrivateDefenseFail) Name() string     { return string(domain.ActionPrivateDefenseFail) }
func (PrivateDefenseRepeat) Name() string   { return string(domain.ActionPrivateDefenseRepeat) }
func (SubmitCombinedMinutes) Name() string  { return string(domain.ActionSubmitCombinedMinutes) }
func (CombinedDefenseSuccess) Name() string { return string(domain.ActionCombinedDefenseSuccess) }
func (CombinedDefenseFailure) Name() string { return string(domain.ActionCombinedDefenseFailure) }

// Public defense.

type ModifyPublicDefense struct {
	Target
	PublicDefense domain.PublicDefense
}

type SubmitPublicDefense struct {
	Target
}

type AuthorisePublicDefense struct {
	Target
}

type SubmitPublicDefenseMinutes struct {
	Target
	Minutes []string
}

type PublicDefenseSuccess struct {
	Target
}

func (ModifyPublicDefense) Name() string    { return string(domain.ActionModifyPublicDefense) }
func (SubmitPublicDefense) Name() string    { return string(domain.ActionSubmitPublicDefense) }
func (AuthorisePublicDefense) Name() string { return string(domain.ActionAuthorisePublicDefense) }
func (SubmitPublicDefenseMinutes) Name() string {
	return string(domain.ActionSubmitPublicDefenseMinutes)
}
func (PublicDefenseSuccess) Name() string { return string(domain.ActionPublicDefenseSuccess) }

// Thesis-distribution authorization.

type EncodeAuthorization struct {
	Target
	Form domain.AuthorizationForm
}

type SendAuthorizationToPromoter struct {
	Target
	AcceptedConditions string
}

// ApproveAuthorization records the approval of one party of the chain.
type ApproveAuthorization struct {
	Target
	Role            domain.AuthorizationRole
	InternalComment string
}

// RefuseAuthorization records the refusal of one party of the chain.
type RefuseAuthorization struct {
	Target
	Role            domain.AuthorizationRole
	Reason          string
	InternalComment string
}

func (EncodeAuthorization) Name() string { return string(domain.ActionEncodeAuthorization) }
func (SendAuthorizationToPromoter) Name() string {
	return string(domain.ActionSendAuthorizationToPromoter)
}
func (c ApproveAuthorization) Name() string {
	return "approve_authorization_by_" + strings.ToLower(string(c.Role))
}
func (c RefuseAuthorization) Name() string {
	return "refuse_authorization_by_" + strings.ToLower(string(c.Role))
}
