package doctorate

import (
	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

func (cmd EncodeAuthorization) handle(x *session) error {
	a, err := x.authorization()
	if err != nil {
		return err
	}
	if err := a.Encode(x.d, x.caller, cmd.Form, x.now); err != nil {
		return err
	}
	x.result = string(a.ID())
	return x.saveAuthorization(a)
}

// SendAuthorizationToPromoter hands the form to the reference promoter of
// the supervision group.
func (cmd SendAuthorizationToPromoter) handle(x *session) error {
	a, err := x.authorization()
	if err != nil {
		return err
	}
	promoterID := x.group.ReferencePromoterPersonID()
	if _, err := a.SendToPromoter(x.d, x.caller, promoterID, cmd.AcceptedConditions, x.now); err != nil {
		return err
	}
	x.result = string(a.ID())
	if err := x.saveAuthorization(a); err != nil {
		return err
	}
	return x.invite(TemplateAuthorizationToSign, []ports.Recipient{{PersonID: promoterID}})
}

// ApproveAuthorization passes the form to the next party of the chain, or
// tells the student once SCEB validated it.
func (cmd ApproveAuthorization) handle(x *session) error {
	a, err := x.authorization()
	if err != nil {
		return err
	}
	next, err := a.Approve(x.d, x.caller, cmd.Role, cmd.InternalComment, x.now)
	if err != nil {
		return err
	}
	x.result = string(a.ID())
	if err := x.saveAuthorization(a); err != nil {
		return err
	}
	switch next {
	case domain.AuthorizationADRE:
		return x.invite(TemplateAuthorizationToSign, people(x.inst.ADREManagerIDs))
	case domain.AuthorizationSCEB:
		return x.invite(TemplateAuthorizationToSign, people(x.inst.SCEBManagerIDs))
	default:
		return x.notify(TemplateAuthorizationValidated, x.student(), x.promoters())
	}
}

func (cmd RefuseAuthorization) handle(x *session) error {
	a, err := x.authorization()
	if err != nil {
		return err
	}
	if err := a.Refuse(x.d, x.caller, cmd.Role, cmd.Reason, cmd.InternalComment, x.now); err != nil {
		return err
	}
	x.result = string(a.ID())
	if err := x.saveAuthorization(a); err != nil {
		return err
	}
	return x.notify(TemplateAuthorizationRefused, x.student(), x.promoters(), "reason", cmd.Reason)
}
