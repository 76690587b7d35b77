package doctorate

import (
	"encoding/json"
	"sort"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

type decodeFunc func(id domain.DoctorateID, body []byte) (Command, error)

// decoder builds the decoder of command type C from a JSON body.
func decoder[C any, P interface {
	*C
	Command
	retarget(domain.DoctorateID)
}]() decodeFunc {
	return func(id domain.DoctorateID, body []byte) (Command, error) {
		var cmd C
		if len(body) > 0 {
			if err := json.Unmarshal(body, &cmd); err != nil {
				return nil, dterrors.Wrap(err, dterrors.KindValidation, "doctorate.Decode", "malformed command body")
			}
		}
		P(&cmd).retarget(id)
		return any(cmd).(Command), nil
	}
}

func approveBy(role domain.AuthorizationRole) decodeFunc {
	decode := decoder[ApproveAuthorization]()
	return func(id domain.DoctorateID, body []byte) (Command, error) {
		cmd, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		approve := cmd.(ApproveAuthorization)
		approve.Role = role
		return approve, nil
	}
}

func refuseBy(role domain.AuthorizationRole) decodeFunc {
	decode := decoder[RefuseAuthorization]()
	return func(id domain.DoctorateID, body []byte) (Command, error) {
		cmd, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		refuse := cmd.(RefuseAuthorization)
		refuse.Role = role
		return refuse, nil
	}
}

var decoders = map[domain.Action]decodeFunc{
	domain.ActionModifyProject:         decoder[ModifyProject](),
	domain.ActionModifyFunding:         decoder[ModifyFunding](),
	domain.ActionModifyCotutelle:       decoder[ModifyCotutelle](),
	domain.ActionModifyJuryPreparation: decoder[ModifyJuryPreparation](),
	domain.ActionSendMessageToStudent:  decoder[SendMessageToStudent](),
	domain.ActionAbandon:               decoder[Abandon](),

	domain.ActionIdentifySupervisionMember:  decoder[IdentifySupervisionMember](),
	domain.ActionModifySupervisionMember:    decoder[ModifySupervisionMember](),
	domain.ActionRemoveSupervisionMember:    decoder[RemoveSupervisionMember](),
	domain.ActionDesignateReferencePromoter: decoder[DesignateReferencePromoter](),
	domain.ActionRequestSignatures:          decoder[RequestSignatures](),
	domain.ActionResendSupervisionInvite:    decoder[ResendSupervisionInvitation](),
	domain.ActionApproveMember:              decoder[ApproveSupervisionMember](),
	domain.ActionApproveMemberByPDF:         decoder[ApproveSupervisionMemberByPDF](),
	domain.ActionDeclineMember:              decoder[DeclineSupervisionMember](),
	domain.ActionResetSupervisionSignatures: decoder[ResetSupervisionSignatures](),

	domain.ActionSubmitConfirmation:          decoder[SubmitConfirmation](),
	domain.ActionModifyConfirmation:          decoder[ModifyConfirmation](),
	domain.ActionSubmitExtensionRequest:      decoder[SubmitExtensionRequest](),
	domain.ActionRecordCDDOpinion:            decoder[RecordCDDOpinion](),
	domain.ActionCompleteConfirmation:        decoder[CompleteConfirmation](),
	domain.ActionConfirmSuccess:              decoder[ConfirmSuccess](),
	domain.ActionConfirmFailure:              decoder[ConfirmFailure](),
	domain.ActionConfirmRetake:               decoder[ConfirmRetake](),
	domain.ActionRecordConfirmationCertified: decoder[RecordConfirmationCertificate](),

	domain.ActionAddJuryMember:        decoder[AddJuryMember](),
	domain.ActionModifyJuryMember:     decoder[ModifyJuryMember](),
	domain.ActionRemoveJuryMember:     decoder[RemoveJuryMember](),
	domain.ActionModifyJuryMemberRole: decoder[ModifyJuryMemberRole](),
	domain.ActionSubmitJury:           decoder[SubmitJury](),
	domain.ActionResendJuryInvite:     decoder[ResendJuryInvitation](),
	domain.ActionApproveJuryMember:    decoder[ApproveJuryMember](),
	domain.ActionApproveJuryMemberPDF: decoder[ApproveJuryMemberByPDF](),
	domain.ActionDeclineJuryMember:    decoder[DeclineJuryMember](),
	domain.ActionResetJurySignatures:  decoder[ResetJurySignatures](),
	domain.ActionApproveJuryCDD:       decoder[ApproveJuryByCDD](),
	domain.ActionRejectJuryCDD:        decoder[RejectJuryByCDD](),
	domain.ActionApproveJuryADRE:      decoder[ApproveJuryByADRE](),
	domain.ActionRejectJuryADRE:       decoder[RejectJuryByADRE](),

	domain.ActionModifyAdmissibility:        decoder[ModifyAdmissibility](),
	domain.ActionSubmitAdmissibility:        decoder[SubmitAdmissibility](),
	domain.ActionSubmitAdmissibilityMinutes: decoder[SubmitAdmissibilityMinutes](),
	domain.ActionAdmissibilitySuccess:       decoder[AdmissibilitySuccess](),
	domain.ActionAdmissibilityRepeat:        decoder[AdmissibilityRepeat](),

	domain.ActionModifyPrivateDefense:        decoder[ModifyPrivateDefense](),
	domain.ActionSubmitPrivateDefense:        decoder[SubmitPrivateDefense](),
	domain.ActionAuthorisePrivateDefense:     decoder[AuthorisePrivateDefense](),
	domain.ActionAuthorisePrivateAndPublic:   decoder[AuthorisePrivateAndPublicDefense](),
	domain.ActionInviteJuryToPrivateDefense:  decoder[InviteJuryToPrivateDefense](),
	domain.ActionSubmitPrivateDefenseMinutes: decoder[SubmitPrivateDefenseMinutes](),
	domain.ActionPrivateDefenseSuccess:       decoder[PrivateDefenseSuccess](),
	domain.ActionPrivateDefenseFail:          decoder[PrivateDefenseFail](),
	domain.ActionPrivateDefenseRepeat:        decoder[PrivateDefenseRepeat](),
	domain.ActionSubmitCombinedMinutes:       decoder[SubmitCombinedMinutes](),
	domain.ActionCombinedDefenseSuccess:      decoder[CombinedDefenseSuccess](),
	domain.ActionCombinedDefenseFailure:      decoder[CombinedDefenseFailure](),

	domain.ActionModifyPublicDefense:        decoder[ModifyPublicDefense](),
	domain.ActionSubmitPublicDefense:        decoder[SubmitPublicDefense](),
	domain.ActionAuthorisePublicDefense:     decoder[AuthorisePublicDefense](),
	domain.ActionSubmitPublicDefenseMinutes: decoder[SubmitPublicDefenseMinutes](),
	domain.ActionPublicDefenseSuccess:       decoder[PublicDefenseSuccess](),

	domain.ActionEncodeAuthorization:            decoder[EncodeAuthorization](),
	domain.ActionSendAuthorizationToPromoter:    decoder[SendAuthorizationToPromoter](),
	domain.ActionApproveAuthorizationByPromoter: approveBy(domain.AuthorizationPromoter),
	domain.ActionRefuseAuthorizationByPromoter:  refuseBy(domain.AuthorizationPromoter),
	domain.ActionApproveAuthorizationByADRE:     approveBy(domain.AuthorizationADRE),
	domain.ActionRefuseAuthorizationByADRE:      refuseBy(domain.AuthorizationADRE),
	domain.ActionApproveAuthorizationBySCEB:     approveBy(domain.AuthorizationSCEB),
	domain.ActionRefuseAuthorizationBySCEB:      refuseBy(domain.AuthorizationSCEB),
}

// Decode builds the command named action for doctorate id from its JSON
// body. Unknown actions, including the ones only the workflow triggers,
// are reported as not found.
func Decode(action string, id domain.DoctorateID, body []byte) (Command, error) {
	decode, ok := decoders[domain.Action(action)]
	if !ok {
		return nil, dterrors.NotFound("doctorate.Decode", "unknown action "+action)
	}
	return decode(id, body)
}

// CommandNames returns the actions callers can request, sorted.
func CommandNames() []string {
	out := make([]string, 0, len(decoders))
	for a := range decoders {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}
