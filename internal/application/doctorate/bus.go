package doctorate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// tracerName identifies the spans of command execution.
const tracerName = "github.com/doctrack/doctrack/internal/application/doctorate"

// Execute runs a command on behalf of c. Validation failures leave every
// aggregate untouched; nothing is written unless the whole command succeeds.
func (s *Service) Execute(ctx context.Context, c domain.Caller, cmd Command) (res Result, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "doctorate."+cmd.Name(),
		trace.WithAttributes(
			attribute.String("doctrack.action", cmd.Name()),
			attribute.String("doctrack.doctorate_id", string(cmd.Doctorate())),
			attribute.String("doctrack.caller", c.PersonID),
		))
	defer func() {
		if res.DoctorateID != "" {
			span.SetAttributes(attribute.String("doctrack.doctorate_id", res.DoctorateID))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, dterrors.GetKind(err).String())
		}
		span.End()
	}()

	if init, ok := cmd.(InitializeDoctorate); ok {
		return s.initialize(ctx, c, init)
	}
	handle, err := handlerFor(cmd)
	if err != nil {
		return Result{}, err
	}
	return s.run(ctx, c, cmd, handle)
}

func handlerFor(cmd Command) (func(*session) error, error) {
	switch cmd := cmd.(type) {
	// Doctorate data.
	case ModifyProject:
		return cmd.handle, nil
	case ModifyFunding:
		return cmd.handle, nil
	case ModifyCotutelle:
		return cmd.handle, nil
	case ModifyJuryPreparation:
		return cmd.handle, nil
	case SendMessageToStudent:
		return cmd.handle, nil
	case Abandon:
		return cmd.handle, nil

	// Supervision.
	case IdentifySupervisionMember:
		return cmd.handle, nil
	case ModifySupervisionMember:
		return cmd.handle, nil
	case RemoveSupervisionMember:
		return cmd.handle, nil
	case DesignateReferencePromoter:
		return cmd.handle, nil
	case RequestSignatures:
		return cmd.handle, nil
	case ResendSupervisionInvitation:
		return cmd.handle, nil
	case ApproveSupervisionMember:
		return cmd.handle, nil
	case ApproveSupervisionMemberByPDF:
		return cmd.handle, nil
	case DeclineSupervisionMember:
		return cmd.handle, nil
	case ResetSupervisionSignatures:
		return cmd.handle, nil

	// Confirmation.
	case SubmitConfirmation:
		return cmd.handle, nil
	case ModifyConfirmation:
		return cmd.handle, nil
	case SubmitExtensionRequest:
		return cmd.handle, nil
	case RecordCDDOpinion:
		return cmd.handle, nil
	case CompleteConfirmation:
		return cmd.handle, nil
	case ConfirmSuccess:
		return cmd.handle, nil
	case ConfirmFailure:
		return cmd.handle, nil
	case ConfirmRetake:
		return cmd.handle, nil
	case RecordConfirmationCertificate:
		return cmd.handle, nil

	// Jury.
	case AddJuryMember:
		return cmd.handle, nil
	case ModifyJuryMember:
		return cmd.handle, nil
	case RemoveJuryMember:
		return cmd.handle, nil
	case ModifyJuryMemberRole:
		return cmd.handle, nil
	case SubmitJury:
		return cmd.handle, nil
	case ResendJuryInvitation:
		return cmd.handle, nil
	case ApproveJuryMember:
		return cmd.handle, nil
	case ApproveJuryMemberByPDF:
		return cmd.handle, nil
	case DeclineJuryMember:
		return cmd.handle, nil
	case ResetJurySignatures:
		return cmd.handle, nil
	case ApproveJuryByCDD:
		return cmd.handle, nil
	case RejectJuryByCDD:
		return cmd.handle, nil
	case ApproveJuryByADRE:
		return cmd.handle, nil
	case RejectJuryByADRE:
		return cmd.handle, nil

	// Admissibility.
	case ModifyAdmissibility:
		return cmd.handle, nil
	case SubmitAdmissibility:
		return cmd.handle, nil
	case SubmitAdmissibilityMinutes:
		return cmd.handle, nil
	case AdmissibilitySuccess:
		return cmd.handle, nil
	case AdmissibilityRepeat:
		return cmd.handle, nil

	// Private defense.
	case ModifyPrivateDefense:
		return cmd.handle, nil
	case SubmitPrivateDefense:
		return cmd.handle, nil
	case AuthorisePrivateDefense:
		return cmd.handle, nil
	case AuthorisePrivateAndPublicDefense:
		return cmd.handle, nil
	case InviteJuryToPrivateDefense:
		return cmd.handle, nil
	case SubmitPrivateDefenseMinutes:
		return cmd.handle, nil
	case PrivateDefenseSuccess:
		return cmd.handle, nil
	case PrivateDefenseFail:
		return cmd.handle, nil
	case PrivateDefenseRepeat:
		return cmd.handle, nil
	case SubmitCombinedMinutes:
		return cmd.handle, nil
	case CombinedDefenseSuccess:
		return cmd.handle, nil
	case CombinedDefenseFailure:
		return cmd.handle, nil

	// Public defense.
	case ModifyPublicDefense:
		return cmd.handle, nil
	case SubmitPublicDefense:
		return cmd.handle, nil
	case AuthorisePublicDefense:
		return cmd.handle, nil
	case SubmitPublicDefenseMinutes:
		return cmd.handle, nil
	case PublicDefenseSuccess:
		return cmd.handle, nil

	// Thesis-distribution authorization.
	case EncodeAuthorization:
		return cmd.handle, nil
	case SendAuthorizationToPromoter:
		return cmd.handle, nil
	case ApproveAuthorization:
		return cmd.handle, nil
	case RefuseAuthorization:
		return cmd.handle, nil

	default:
		return nil, dterrors.Validation("doctorate.Execute", fmt.Sprintf("unsupported command %T", cmd)).
			WithDetail("status_code", domain.ErrUnknownAction.Code)
	}
}
