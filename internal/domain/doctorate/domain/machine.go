package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/statekit"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// Action names a business action. Names are stable: they appear in history,
// in the HTTP surface and in the exported machine.
type Action string

// String returns the action name.
func (a Action) String() string { return string(a) }

// Doctorate data actions.
const (
	ActionModifyProject         Action = "modify_project"
	ActionModifyFunding         Action = "modify_funding"
	ActionModifyCotutelle       Action = "modify_cotutelle"
	ActionModifyJuryPreparation Action = "modify_jury_preparation"
	ActionSendMessageToStudent  Action = "send_message_to_student"
	ActionAbandon               Action = "abandon"
)

// Supervision actions.
const (
	ActionIdentifySupervisionMember  Action = "identify_supervision_member"
	ActionModifySupervisionMember    Action = "modify_supervision_member"
	ActionRemoveSupervisionMember    Action = "remove_supervision_member"
	ActionDesignateReferencePromoter Action = "designate_reference_promoter"
	ActionRequestSignatures          Action = "request_signatures"
	ActionResendSupervisionInvite    Action = "resend_supervision_invitation"
	ActionApproveMember              Action = "approve_member"
	ActionApproveMemberByPDF         Action = "approve_member_by_pdf"
	ActionDeclineMember              Action = "decline_member"
	ActionSupervisionApproved        Action = "supervision_approved"
	ActionResetSupervisionSignatures Action = "reset_supervision_signatures"
)

// Confirmation actions.
const (
	ActionSubmitConfirmation          Action = "submit_confirmation"
	ActionModifyConfirmation          Action = "modify_confirmation"
	ActionSubmitExtensionRequest      Action = "submit_extension_request"
	ActionRecordCDDOpinion            Action = "record_cdd_opinion"
	ActionCompleteConfirmation        Action = "complete_confirmation_by_promoter"
	ActionConfirmSuccess              Action = "confirm_success"
	ActionConfirmFailure              Action = "confirm_failure"
	ActionConfirmRetake               Action = "confirm_retake"
	ActionRecordConfirmationCertified Action = "record_confirmation_certificate"
)

// Jury actions.
const (
	ActionAddJuryMember         Action = "add_jury_member"
	ActionModifyJuryMember      Action = "modify_jury_member"
	ActionRemoveJuryMember      Action = "remove_jury_member"
	ActionModifyJuryMemberRole  Action = "modify_jury_member_role"
	ActionSubmitJury            Action = "submit_jury"
	ActionResendJuryInvite      Action = "resend_jury_invitation"
	ActionApproveJuryMember     Action = "approve_jury_member"
	ActionApproveJuryMemberPDF  Action = "approve_jury_member_by_pdf"
	ActionDeclineJuryMember     Action = "decline_jury_member"
	ActionJuryApprovedByMembers Action = "jury_approved_by_members"
	ActionJuryDeclinedByMember  Action = "jury_declined_by_member"
	ActionResetJurySignatures   Action = "reset_jury_signatures"
	ActionApproveJuryCDD        Action = "approve_jury_cdd"
	ActionRejectJuryCDD         Action = "reject_jury_cdd"
	ActionApproveJuryADRE       Action = "approve_jury_adre"
	ActionRejectJuryADRE        Action = "reject_jury_adre"
)

// Admissibility actions.
const (
	ActionModifyAdmissibility        Action = "modify_admissibility"
	ActionSubmitAdmissibility        Action = "submit_admissibility"
	ActionSubmitAdmissibilityMinutes Action = "submit_admissibility_minutes"
	ActionAdmissibilitySuccess       Action = "admissibility_success"
	ActionAdmissibilityRepeat        Action = "admissibility_repeat"
)

// Private defense actions.
const (
	ActionModifyPrivateDefense        Action = "modify_private_defense"
	ActionSubmitPrivateDefense        Action = "submit_private_defense"
	ActionAuthorisePrivateDefense     Action = "authorise_private_defense"
	ActionAuthorisePrivateAndPublic   Action = "authorise_private_and_public_defense"
	ActionInviteJuryToPrivateDefense  Action = "invite_jury_to_private_defense"
	ActionSubmitPrivateDefenseMinutes Action = "submit_private_defense_minutes"
	ActionPrivateDefenseSuccess       Action = "private_defense_success"
	ActionPrivateDefenseFail          Action = "private_defense_fail"
	ActionPrivateDefenseRepeat        Action = "private_defense_repeat"
	ActionSubmitCombinedMinutes       Action = "submit_combined_minutes"
	ActionCombinedDefenseSuccess      Action = "combined_defense_success"
	ActionCombinedDefenseFailure      Action = "combined_defense_failure"
)

// Public defense actions.
const (
	ActionModifyPublicDefense        Action = "modify_public_defense"
	ActionSubmitPublicDefense        Action = "submit_public_defense"
	ActionAuthorisePublicDefense     Action = "authorise_public_defense"
	ActionSubmitPublicDefenseMinutes Action = "submit_public_defense_minutes"
	ActionPublicDefenseSuccess       Action = "public_defense_success"
)

// Thesis-distribution authorization actions.
const (
	ActionEncodeAuthorization            Action = "encode_authorization"
	ActionSendAuthorizationToPromoter    Action = "send_authorization_to_promoter"
	ActionApproveAuthorizationByPromoter Action = "approve_authorization_by_promoter"
	ActionRefuseAuthorizationByPromoter  Action = "refuse_authorization_by_promoter"
	ActionApproveAuthorizationByADRE     Action = "approve_authorization_by_adre"
	ActionRefuseAuthorizationByADRE      Action = "refuse_authorization_by_adre"
	ActionApproveAuthorizationBySCEB     Action = "approve_authorization_by_sceb"
	ActionRefuseAuthorizationBySCEB      Action = "refuse_authorization_by_sceb"
)

// Phases used as the first history tag.
const (
	PhaseDoctorate      = "doctorate"
	PhaseSupervision    = "supervision"
	PhaseConfirmation   = "confirmation"
	PhaseJury           = "jury"
	PhaseAdmissibility  = "admissibility"
	PhasePrivateDefense = "private-defense"
	PhasePublicDefense  = "public-defense"
	PhaseAuthorization  = "authorization"
)

// TagStatusChanged is the history tag of every status change.
const TagStatusChanged = "status-changed"

// Transition is one edge of the status machine. An empty From allows any
// non-final status; an empty To keeps the current status. A nil Allowed
// marks a transition only the workflow itself triggers. Denied and
// WrongStatus replace the generic errors of a failed check.
type Transition struct {
	Action      Action
	From        []DoctorateStatus
	To          DoctorateStatus
	Allowed     Policy
	Denied      *dterrors.BusinessError
	WrongStatus *dterrors.BusinessError
	Phase       string
	Tags        []string
}

func (t Transition) allowsFrom(s DoctorateStatus) bool {
	if len(t.From) == 0 {
		return !s.IsFinal()
	}
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

// HistoryTags returns the tags recorded in history when t is applied.
func (t Transition) HistoryTags(from DoctorateStatus) []string {
	tags := []string{t.Phase}
	tags = append(tags, t.Tags...)
	if t.To != "" && t.To != from && len(t.Tags) == 0 {
		tags = append(tags, TagStatusChanged)
	}
	return tags
}

var (
	canEditDoctorate   = AnyOf(IsStudent, IsManager)
	canEditSupervision = AnyOf(IsStudent, IsManager)
	canRespondAsMember = AnyOf(IsSupervisionMember, IsManager)
	canEditJury        = AnyOf(IsStudent, IsPromoter, IsManager)
	canRespondAsJury   = AnyOf(IsJuryMember, IsManager)
	canEditDefense     = AnyOf(IsStudent, IsPromoter, IsManager)
	canEncodeDecision  = AnyOf(IsStudent, IsPromoter, IsJurySecretaryOrPresident, IsManager)
	canEditPromoterDoc = AnyOf(IsPromoter, IsManager)
)

var (
	jurySetupStatuses = []DoctorateStatus{StatusConfirmationSucceeded, StatusJuryRejectedCDD, StatusJuryRejectedADRE}

	juryPreparationStatuses = []DoctorateStatus{
		StatusAdmitted, StatusWaitingForSignature, StatusConfirmationSubmitted, StatusConfirmationSucceeded,
		StatusConfirmationToRepeat, StatusJuryRejectedCDD, StatusJuryRejectedADRE,
	}

	publicDefenseEditStatuses = []DoctorateStatus{
		StatusAdmissibilitySucceeded, StatusPrivateDefenseToRepeat, StatusPrivateDefenseSubmitted,
		StatusPrivateDefenseSucceeded, StatusPublicDefenseSubmitted,
	}

	authorizationStatuses = []DoctorateStatus{
		StatusPrivateDefenseSucceeded, StatusDefenseAndSoutenanceAuthorized, StatusPublicDefenseSubmitted,
		StatusPublicDefenseAuthorized, StatusProclaimed,
	}
)

// transitions is the single source of the status rules.
var transitions = []Transition{
	// Doctorate data
	{Action: ActionModifyProject, From: []DoctorateStatus{StatusAdmitted}, Allowed: canEditDoctorate, Phase: PhaseDoctorate, Tags: []string{"project-modified"}},
	{Action: ActionModifyFunding, Allowed: canEditDoctorate, Phase: PhaseDoctorate, Tags: []string{"funding-modified"}},
	{Action: ActionModifyCotutelle, From: []DoctorateStatus{StatusAdmitted}, Allowed: canEditDoctorate, Phase: PhaseDoctorate, Tags: []string{"cotutelle-modified"}},
	{Action: ActionModifyJuryPreparation, From: juryPreparationStatuses, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"preparation-modified"}},
	{Action: ActionSendMessageToStudent, Allowed: IsManager, Phase: PhaseDoctorate, Tags: []string{"message"}},
	{Action: ActionAbandon, To: StatusAbandon, Allowed: IsManager, Phase: PhaseDoctorate},

	// Supervision
	{Action: ActionIdentifySupervisionMember, From: []DoctorateStatus{StatusAdmitted}, Allowed: canEditSupervision, WrongStatus: ErrSignatureRequestStarted, Phase: PhaseSupervision, Tags: []string{"member-added"}},
	{Action: ActionModifySupervisionMember, From: []DoctorateStatus{StatusAdmitted}, Allowed: canEditSupervision, WrongStatus: ErrSignatureRequestStarted, Phase: PhaseSupervision, Tags: []string{"member-modified"}},
	{Action: ActionRemoveSupervisionMember, From: []DoctorateStatus{StatusAdmitted}, Allowed: canEditSupervision, WrongStatus: ErrSignatureRequestStarted, Phase: PhaseSupervision, Tags: []string{"member-removed"}},
	{Action: ActionDesignateReferencePromoter, From: []DoctorateStatus{StatusAdmitted}, Allowed: canEditSupervision, WrongStatus: ErrSignatureRequestStarted, Phase: PhaseSupervision, Tags: []string{"reference-promoter"}},
	{Action: ActionRequestSignatures, From: []DoctorateStatus{StatusAdmitted}, To: StatusWaitingForSignature, Allowed: canEditSupervision, WrongStatus: ErrSignatureRequestStarted, Phase: PhaseSupervision, Tags: []string{"signatures-requested", TagStatusChanged}},
	{Action: ActionResendSupervisionInvite, From: []DoctorateStatus{StatusWaitingForSignature}, Allowed: canEditSupervision, WrongStatus: ErrNotWaitingForSignature, Phase: PhaseSupervision, Tags: []string{"invitation-resent"}},
	{Action: ActionApproveMember, From: []DoctorateStatus{StatusWaitingForSignature}, Allowed: canRespondAsMember, WrongStatus: ErrNotWaitingForSignature, Phase: PhaseSupervision, Tags: []string{"approval"}},
	{Action: ActionApproveMemberByPDF, From: []DoctorateStatus{StatusWaitingForSignature}, Allowed: canEditSupervision, WrongStatus: ErrNotWaitingForSignature, Phase: PhaseSupervision, Tags: []string{"approval"}},
	{Action: ActionDeclineMember, From: []DoctorateStatus{StatusWaitingForSignature}, Allowed: canRespondAsMember, WrongStatus: ErrNotWaitingForSignature, Phase: PhaseSupervision, Tags: []string{"decline"}},
	{Action: ActionSupervisionApproved, From: []DoctorateStatus{StatusWaitingForSignature}, To: StatusAdmitted, Phase: PhaseSupervision, Tags: []string{"approved", TagStatusChanged}},
	{Action: ActionResetSupervisionSignatures, From: []DoctorateStatus{StatusWaitingForSignature}, To: StatusAdmitted, Allowed: canEditSupervision, Phase: PhaseSupervision},

	// Confirmation
	{Action: ActionSubmitConfirmation, From: []DoctorateStatus{StatusAdmitted, StatusConfirmationToRepeat}, To: StatusConfirmationSubmitted, Allowed: canEditDoctorate, Phase: PhaseConfirmation},
	{Action: ActionModifyConfirmation, From: []DoctorateStatus{StatusAdmitted, StatusWaitingForSignature, StatusConfirmationSubmitted, StatusConfirmationToRepeat}, Allowed: IsCDDManager, Phase: PhaseConfirmation, Tags: []string{"modified"}},
	{Action: ActionSubmitExtensionRequest, From: []DoctorateStatus{StatusConfirmationSubmitted}, Allowed: canEditDoctorate, Phase: PhaseConfirmation, Tags: []string{"extension-requested"}},
	{Action: ActionRecordCDDOpinion, From: []DoctorateStatus{StatusConfirmationSubmitted}, Allowed: IsCDDManager, Phase: PhaseConfirmation, Tags: []string{"cdd-opinion"}},
	{Action: ActionCompleteConfirmation, From: []DoctorateStatus{StatusConfirmationSubmitted}, Allowed: canEditPromoterDoc, Phase: PhaseConfirmation, Tags: []string{"completed-by-promoter"}},
	{Action: ActionConfirmSuccess, From: []DoctorateStatus{StatusConfirmationSubmitted}, To: StatusConfirmationSucceeded, Allowed: IsCDDManager, Phase: PhaseConfirmation},
	{Action: ActionConfirmFailure, From: []DoctorateStatus{StatusConfirmationSubmitted}, To: StatusNotAuthorizedToContinue, Allowed: IsCDDManager, Phase: PhaseConfirmation},
	{Action: ActionConfirmRetake, From: []DoctorateStatus{StatusConfirmationSubmitted}, To: StatusConfirmationToRepeat, Allowed: IsCDDManager, Phase: PhaseConfirmation},
	{Action: ActionRecordConfirmationCertified, From: []DoctorateStatus{StatusConfirmationSucceeded, StatusNotAuthorizedToContinue}, Allowed: IsManager, Phase: PhaseConfirmation, Tags: []string{"certificate"}},

	// Jury
	{Action: ActionAddJuryMember, From: jurySetupStatuses, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"member-added"}},
	{Action: ActionModifyJuryMember, From: jurySetupStatuses, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"member-modified"}},
	{Action: ActionRemoveJuryMember, From: jurySetupStatuses, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"member-removed"}},
	{Action: ActionModifyJuryMemberRole, From: jurySetupStatuses, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"role-modified"}},
	{Action: ActionSubmitJury, From: jurySetupStatuses, To: StatusJurySubmitted, Allowed: canEditJury, Phase: PhaseJury},
	{Action: ActionResendJuryInvite, From: []DoctorateStatus{StatusJurySubmitted}, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"invitation-resent"}},
	{Action: ActionApproveJuryMember, From: []DoctorateStatus{StatusJurySubmitted}, Allowed: canRespondAsJury, Phase: PhaseJury, Tags: []string{"approval"}},
	{Action: ActionApproveJuryMemberPDF, From: []DoctorateStatus{StatusJurySubmitted}, Allowed: canEditJury, Phase: PhaseJury, Tags: []string{"approval"}},
	{Action: ActionDeclineJuryMember, From: []DoctorateStatus{StatusJurySubmitted}, Allowed: canRespondAsJury, Phase: PhaseJury, Tags: []string{"decline"}},
	{Action: ActionJuryApprovedByMembers, From: []DoctorateStatus{StatusJurySubmitted}, To: StatusJuryApprovedCA, Phase: PhaseJury},
	{Action: ActionJuryDeclinedByMember, From: []DoctorateStatus{StatusJurySubmitted}, To: StatusConfirmationSucceeded, Phase: PhaseJury},
	{Action: ActionResetJurySignatures, From: []DoctorateStatus{StatusJurySubmitted}, To: StatusConfirmationSucceeded, Allowed: canEditJury, Phase: PhaseJury},
	{Action: ActionApproveJuryCDD, From: []DoctorateStatus{StatusJuryApprovedCA}, To: StatusJuryApprovedCDD, Allowed: IsCDDManager, Denied: ErrAuthorNotCDD, Phase: PhaseJury},
	{Action: ActionRejectJuryCDD, From: []DoctorateStatus{StatusJuryApprovedCA}, To: StatusJuryRejectedCDD, Allowed: IsCDDManager, Denied: ErrAuthorNotCDD, Phase: PhaseJury},
	{Action: ActionApproveJuryADRE, From: []DoctorateStatus{StatusJuryApprovedCDD}, To: StatusJuryApprovedADRE, Allowed: IsADREManager, Denied: ErrAuthorNotADRE, Phase: PhaseJury},
	{Action: ActionRejectJuryADRE, From: []DoctorateStatus{StatusJuryApprovedCDD}, To: StatusJuryRejectedADRE, Allowed: IsADREManager, Denied: ErrAuthorNotADRE, Phase: PhaseJury},

	// Admissibility
	{Action: ActionModifyAdmissibility, From: []DoctorateStatus{StatusJuryApprovedADRE, StatusAdmissibilitySubmitted, StatusAdmissibilityToRepeat}, Allowed: canEncodeDecision, Phase: PhaseAdmissibility, Tags: []string{"modified"}},
	{Action: ActionSubmitAdmissibility, From: []DoctorateStatus{StatusJuryApprovedADRE, StatusAdmissibilityToRepeat}, To: StatusAdmissibilitySubmitted, Allowed: canEditDefense, Phase: PhaseAdmissibility},
	{Action: ActionSubmitAdmissibilityMinutes, From: []DoctorateStatus{StatusAdmissibilitySubmitted}, Allowed: CanSubmitDefenseMinutes, Phase: PhaseAdmissibility, Tags: []string{"minutes"}},
	{Action: ActionAdmissibilitySuccess, From: []DoctorateStatus{StatusAdmissibilitySubmitted}, To: StatusAdmissibilitySucceeded, Allowed: IsManager, Phase: PhaseAdmissibility},
	{Action: ActionAdmissibilityRepeat, From: []DoctorateStatus{StatusAdmissibilitySubmitted}, To: StatusAdmissibilityToRepeat, Allowed: IsManager, Phase: PhaseAdmissibility},

	// Private defense
	{Action: ActionModifyPrivateDefense, From: []DoctorateStatus{StatusAdmissibilitySucceeded, StatusPrivateDefenseToRepeat, StatusPrivateDefenseSubmitted}, Allowed: canEditDefense, Phase: PhasePrivateDefense, Tags: []string{"modified"}},
	{Action: ActionSubmitPrivateDefense, From: []DoctorateStatus{StatusAdmissibilitySucceeded, StatusPrivateDefenseToRepeat}, To: StatusPrivateDefenseSubmitted, Allowed: canEditDoctorate, Phase: PhasePrivateDefense},
	{Action: ActionAuthorisePrivateDefense, From: []DoctorateStatus{StatusPrivateDefenseSubmitted}, To: StatusPrivateDefenseAuthorized, Allowed: IsManager, WrongStatus: ErrStatusNotPrivateDefenseSubmitted, Phase: PhasePrivateDefense},
	{Action: ActionAuthorisePrivateAndPublic, From: []DoctorateStatus{StatusPrivateDefenseSubmitted}, To: StatusDefenseAndSoutenanceAuthorized, Allowed: IsManager, WrongStatus: ErrStatusNotPrivateDefenseSubmitted, Phase: PhasePrivateDefense},
	{Action: ActionInviteJuryToPrivateDefense, From: []DoctorateStatus{StatusPrivateDefenseAuthorized, StatusDefenseAndSoutenanceAuthorized}, Allowed: canEditDefense, Phase: PhasePrivateDefense, Tags: []string{"jury-invited"}},
	{Action: ActionSubmitPrivateDefenseMinutes, From: []DoctorateStatus{StatusPrivateDefenseAuthorized}, Allowed: CanSubmitDefenseMinutes, WrongStatus: ErrStatusNotPrivateDefenseAuthorized, Phase: PhasePrivateDefense, Tags: []string{"minutes"}},
	{Action: ActionPrivateDefenseSuccess, From: []DoctorateStatus{StatusPrivateDefenseAuthorized}, To: StatusPrivateDefenseSucceeded, Allowed: IsManager, WrongStatus: ErrStatusNotPrivateDefenseAuthorized, Phase: PhasePrivateDefense},
	{Action: ActionPrivateDefenseFail, From: []DoctorateStatus{StatusPrivateDefenseAuthorized}, To: StatusPrivateDefenseFailed, Allowed: IsManager, WrongStatus: ErrStatusNotPrivateDefenseAuthorized, Phase: PhasePrivateDefense},
	{Action: ActionPrivateDefenseRepeat, From: []DoctorateStatus{StatusPrivateDefenseAuthorized}, To: StatusPrivateDefenseToRepeat, Allowed: IsManager, WrongStatus: ErrStatusNotPrivateDefenseAuthorized, Phase: PhasePrivateDefense},
	{Action: ActionSubmitCombinedMinutes, From: []DoctorateStatus{StatusDefenseAndSoutenanceAuthorized}, Allowed: CanSubmitDefenseMinutes, Phase: PhasePrivateDefense, Tags: []string{"minutes"}},
	{Action: ActionCombinedDefenseSuccess, From: []DoctorateStatus{StatusDefenseAndSoutenanceAuthorized}, To: StatusProclaimed, Allowed: IsManager, Phase: PhasePrivateDefense},
	{Action: ActionCombinedDefenseFailure, From: []DoctorateStatus{StatusDefenseAndSoutenanceAuthorized}, To: StatusPrivateDefenseFailed, Allowed: IsManager, Phase: PhasePrivateDefense},

	// Public defense
	{Action: ActionModifyPublicDefense, From: publicDefenseEditStatuses, Allowed: canEditDefense, Phase: PhasePublicDefense, Tags: []string{"modified"}},
	{Action: ActionSubmitPublicDefense, From: []DoctorateStatus{StatusPrivateDefenseSucceeded}, To: StatusPublicDefenseSubmitted, Allowed: canEditDoctorate, WrongStatus: ErrPublicDefenseNotInProgress, Phase: PhasePublicDefense},
	{Action: ActionAuthorisePublicDefense, From: []DoctorateStatus{StatusPublicDefenseSubmitted}, To: StatusPublicDefenseAuthorized, Allowed: IsManager, WrongStatus: ErrStatusNotPublicDefenseSubmitted, Phase: PhasePublicDefense},
	{Action: ActionSubmitPublicDefenseMinutes, From: []DoctorateStatus{StatusPublicDefenseAuthorized}, Allowed: CanSubmitDefenseMinutes, WrongStatus: ErrStatusNotPublicDefenseAuthorized, Phase: PhasePublicDefense, Tags: []string{"minutes"}},
	{Action: ActionPublicDefenseSuccess, From: []DoctorateStatus{StatusPublicDefenseAuthorized}, To: StatusProclaimed, Allowed: IsManager, WrongStatus: ErrStatusNotPublicDefenseAuthorized, Phase: PhasePublicDefense},

	// Thesis-distribution authorization
	{Action: ActionEncodeAuthorization, From: authorizationStatuses, Allowed: IsStudent, Phase: PhaseAuthorization, Tags: []string{"encoded"}},
	{Action: ActionSendAuthorizationToPromoter, From: authorizationStatuses, Allowed: IsStudent, Phase: PhaseAuthorization, Tags: []string{"sent-to-promoter"}},
	{Action: ActionApproveAuthorizationByPromoter, From: authorizationStatuses, Allowed: IsPromoter, Phase: PhaseAuthorization, Tags: []string{"approved-by-promoter"}},
	{Action: ActionRefuseAuthorizationByPromoter, From: authorizationStatuses, Allowed: IsPromoter, Phase: PhaseAuthorization, Tags: []string{"refused-by-promoter"}},
	{Action: ActionApproveAuthorizationByADRE, From: authorizationStatuses, Allowed: IsADREManager, Phase: PhaseAuthorization, Tags: []string{"approved-by-adre"}},
	{Action: ActionRefuseAuthorizationByADRE, From: authorizationStatuses, Allowed: IsADREManager, Phase: PhaseAuthorization, Tags: []string{"refused-by-adre"}},
	{Action: ActionApproveAuthorizationBySCEB, From: authorizationStatuses, Allowed: IsSCEBManager, Phase: PhaseAuthorization, Tags: []string{"validated"}},
	{Action: ActionRefuseAuthorizationBySCEB, From: authorizationStatuses, Allowed: IsSCEBManager, Phase: PhaseAuthorization, Tags: []string{"refused-by-sceb"}},
}

var transitionsByAction = func() map[Action]Transition {
	m := make(map[Action]Transition, len(transitions))
	for _, t := range transitions {
		m[t.Action] = t
	}
	return m
}()

// Transitions returns a copy of the transition table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// LookupTransition returns the transition of an action.
func LookupTransition(action Action) (Transition, bool) {
	t, ok := transitionsByAction[action]
	return t, ok
}

// Check tells whether c may apply action to d in its current status. The
// caller is checked before the status. Nothing is mutated.
func (d *Doctorate) Check(action Action, c Caller) error {
	t, ok := transitionsByAction[action]
	if !ok {
		return ErrUnknownAction
	}
	if t.Allowed != nil && !t.Allowed(c, d) {
		op := "doctorate." + string(action)
		if t.Denied != nil {
			return dterrors.Wrap(t.Denied, dterrors.KindPermission, op, t.Denied.Message).
				WithDetail("status_code", t.Denied.Code)
		}
		return dterrors.Permission(op, "caller is not allowed to "+string(action))
	}
	if !t.allowsFrom(d.status) {
		if t.WrongStatus != nil {
			return t.WrongStatus
		}
		return ErrActionNotAllowedInStatus
	}
	return nil
}

// Fire checks and applies a transition that has no other effect than the
// status change and its history entry.
func (d *Doctorate) Fire(action Action, c Caller, at time.Time) error {
	if err := d.Check(action, c); err != nil {
		return err
	}
	d.apply(action, c, at)
	return nil
}

// apply records a transition already checked by the caller.
func (d *Doctorate) apply(action Action, c Caller, at time.Time) {
	t := transitionsByAction[action]
	from := d.status
	if t.To != "" {
		d.status = t.To
	}
	d.updatedAt = at
	d.addEvent(&ActionAppliedEvent{
		DoctorateID: d.id,
		Action:      action,
		Phase:       t.Phase,
		From:        from,
		To:          d.status,
		Tags:        t.HistoryTags(from),
		Actor:       c.PersonID,
		At:          at,
	})
}

// advance applies an automatic transition when d is in one of its source
// statuses. It reports whether the status moved.
func (d *Doctorate) advance(action Action, c Caller, at time.Time) bool {
	t := transitionsByAction[action]
	if !t.allowsFrom(d.status) {
		return false
	}
	d.apply(action, c, at)
	return true
}

// MachineContext is the statekit context of the doctorate machine.
type MachineContext struct {
	Doctorate *Doctorate
}

func sid(s DoctorateStatus) statekit.StateID        { return statekit.StateID(s) }
func evt(a Action) statekit.EventType              { return statekit.EventType(a) }
func statusOf(id statekit.StateID) DoctorateStatus { return DoctorateStatus(id) }

// NewStatusMachine builds the statekit machine of the status-changing rows
// of the transition table.
func NewStatusMachine() (*statekit.Interpreter[MachineContext], error) {
	machine, err := statekit.NewMachine[MachineContext]("doctorate").
		WithInitial(sid(StatusAdmitted)).
		// Supervision
		State(sid(StatusAdmitted)).
		On(evt(ActionRequestSignatures)).Target(sid(StatusWaitingForSignature)).
		On(evt(ActionSubmitConfirmation)).Target(sid(StatusConfirmationSubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusWaitingForSignature)).
		On(evt(ActionSupervisionApproved)).Target(sid(StatusAdmitted)).
		On(evt(ActionResetSupervisionSignatures)).Target(sid(StatusAdmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		// Confirmation
		State(sid(StatusConfirmationSubmitted)).
		On(evt(ActionConfirmSuccess)).Target(sid(StatusConfirmationSucceeded)).
		On(evt(ActionConfirmFailure)).Target(sid(StatusNotAuthorizedToContinue)).
		On(evt(ActionConfirmRetake)).Target(sid(StatusConfirmationToRepeat)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusConfirmationSucceeded)).
		On(evt(ActionSubmitJury)).Target(sid(StatusJurySubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusConfirmationToRepeat)).
		On(evt(ActionSubmitConfirmation)).Target(sid(StatusConfirmationSubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusNotAuthorizedToContinue)).
		Final().
		Done().
		// Jury
		State(sid(StatusJurySubmitted)).
		On(evt(ActionJuryApprovedByMembers)).Target(sid(StatusJuryApprovedCA)).
		On(evt(ActionJuryDeclinedByMember)).Target(sid(StatusConfirmationSucceeded)).
		On(evt(ActionResetJurySignatures)).Target(sid(StatusConfirmationSucceeded)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusJuryApprovedCA)).
		On(evt(ActionApproveJuryCDD)).Target(sid(StatusJuryApprovedCDD)).
		On(evt(ActionRejectJuryCDD)).Target(sid(StatusJuryRejectedCDD)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusJuryApprovedCDD)).
		On(evt(ActionApproveJuryADRE)).Target(sid(StatusJuryApprovedADRE)).
		On(evt(ActionRejectJuryADRE)).Target(sid(StatusJuryRejectedADRE)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusJuryRejectedCDD)).
		On(evt(ActionSubmitJury)).Target(sid(StatusJurySubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusJuryRejectedADRE)).
		On(evt(ActionSubmitJury)).Target(sid(StatusJurySubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusJuryApprovedADRE)).
		On(evt(ActionSubmitAdmissibility)).Target(sid(StatusAdmissibilitySubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		// Admissibility
		State(sid(StatusAdmissibilitySubmitted)).
		On(evt(ActionAdmissibilitySuccess)).Target(sid(StatusAdmissibilitySucceeded)).
		On(evt(ActionAdmissibilityRepeat)).Target(sid(StatusAdmissibilityToRepeat)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusAdmissibilityToRepeat)).
		On(evt(ActionSubmitAdmissibility)).Target(sid(StatusAdmissibilitySubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusAdmissibilitySucceeded)).
		On(evt(ActionSubmitPrivateDefense)).Target(sid(StatusPrivateDefenseSubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		// Private defense
		State(sid(StatusPrivateDefenseSubmitted)).
		On(evt(ActionAuthorisePrivateDefense)).Target(sid(StatusPrivateDefenseAuthorized)).
		On(evt(ActionAuthorisePrivateAndPublic)).Target(sid(StatusDefenseAndSoutenanceAuthorized)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusPrivateDefenseAuthorized)).
		On(evt(ActionPrivateDefenseSuccess)).Target(sid(StatusPrivateDefenseSucceeded)).
		On(evt(ActionPrivateDefenseFail)).Target(sid(StatusPrivateDefenseFailed)).
		On(evt(ActionPrivateDefenseRepeat)).Target(sid(StatusPrivateDefenseToRepeat)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusPrivateDefenseToRepeat)).
		On(evt(ActionSubmitPrivateDefense)).Target(sid(StatusPrivateDefenseSubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusPrivateDefenseFailed)).
		Final().
		Done().
		State(sid(StatusDefenseAndSoutenanceAuthorized)).
		On(evt(ActionCombinedDefenseSuccess)).Target(sid(StatusProclaimed)).
		On(evt(ActionCombinedDefenseFailure)).Target(sid(StatusPrivateDefenseFailed)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		// Public defense
		State(sid(StatusPrivateDefenseSucceeded)).
		On(evt(ActionSubmitPublicDefense)).Target(sid(StatusPublicDefenseSubmitted)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusPublicDefenseSubmitted)).
		On(evt(ActionAuthorisePublicDefense)).Target(sid(StatusPublicDefenseAuthorized)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusPublicDefenseAuthorized)).
		On(evt(ActionPublicDefenseSuccess)).Target(sid(StatusProclaimed)).
		On(evt(ActionAbandon)).Target(sid(StatusAbandon)).
		Done().
		State(sid(StatusProclaimed)).
		Final().
		Done().
		State(sid(StatusAbandon)).
		Final().
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build status machine: %w", err)
	}
	return statekit.NewInterpreter(machine), nil
}

// ReplayPath walks the machine from ADMITTED through actions and returns the
// visited statuses. It fails on the first action the table does not allow.
func ReplayPath(actions ...Action) ([]DoctorateStatus, error) {
	interp, err := NewStatusMachine()
	if err != nil {
		return nil, err
	}
	interp.Start()
	path := []DoctorateStatus{statusOf(interp.State().Value)}
	for _, a := range actions {
		current := statusOf(interp.State().Value)
		t, ok := transitionsByAction[a]
		if !ok || t.To == "" || !t.allowsFrom(current) {
			return path, fmt.Errorf("%w: %s from %s", ErrActionNotAllowedInStatus, a, current)
		}
		interp.Send(statekit.Event{Type: evt(a)})
		next := statusOf(interp.State().Value)
		if next != t.To {
			return path, fmt.Errorf("machine moved %s to %s on %s, table expects %s", current, next, a, t.To)
		}
		path = append(path, next)
	}
	return path, nil
}

// XStateJSON represents the XState JSON format for visualization.
type XStateJSON struct {
	ID      string                     `json:"id"`
	Initial string                     `json:"initial"`
	States  map[string]XStateStateJSON `json:"states"`
}

// XStateStateJSON represents a state in XState JSON format.
type XStateStateJSON struct {
	Type        string                      `json:"type,omitempty"`
	Description string                      `json:"description,omitempty"`
	On          map[string]XStateTransition `json:"on,omitempty"`
}

// XStateTransition represents a transition in XState JSON format.
type XStateTransition struct {
	Target string `json:"target"`
	Guard  string `json:"cond,omitempty"`
}

// ExportXStateJSON exports the status-changing transitions as XState JSON.
// Transitions only the workflow triggers carry the "automatic" guard.
func ExportXStateJSON() ([]byte, error) {
	x := XStateJSON{
		ID:      "doctorate",
		Initial: string(StatusAdmitted),
		States:  make(map[string]XStateStateJSON, len(allStatuses)),
	}
	for _, s := range allStatuses {
		state := XStateStateJSON{Description: s.Description()}
		if s.IsFinal() {
			state.Type = "final"
		}
		for _, t := range transitions {
			if t.To == "" || !t.allowsFrom(s) {
				continue
			}
			if state.On == nil {
				state.On = make(map[string]XStateTransition)
			}
			tr := XStateTransition{Target: string(t.To)}
			if t.Allowed == nil {
				tr.Guard = "automatic"
			}
			state.On[string(t.Action)] = tr
		}
		x.States[string(s)] = state
	}
	return json.MarshalIndent(x, "", "  ")
}

// AllowedActions returns the actions c may apply to d, sorted by name.
func AllowedActions(c Caller, d *Doctorate) []Action {
	var out []Action
	for _, t := range transitions {
		if t.Allowed == nil {
			continue
		}
		if d.Check(t.Action, c) == nil {
			out = append(out, t.Action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
