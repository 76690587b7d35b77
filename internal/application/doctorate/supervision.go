package doctorate

import (
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

func (cmd IdentifySupervisionMember) handle(x *session) error {
	id, err := x.group.IdentifyMember(x.d, x.caller, cmd.Role, cmd.PersonID, cmd.External, x.now)
	if err != nil {
		return err
	}
	x.result = string(id)
	return x.saveGroup()
}

func (cmd ModifySupervisionMember) handle(x *session) error {
	if err := x.group.ModifyExternalMember(x.d, x.caller, cmd.SignatoryID, cmd.External, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveGroup()
}

func (cmd RemoveSupervisionMember) handle(x *session) error {
	if err := x.group.RemoveMember(x.d, x.caller, cmd.SignatoryID, x.now); err != nil {
		return err
	}
	return x.saveGroup()
}

func (cmd DesignateReferencePromoter) handle(x *session) error {
	if err := x.group.DesignateReferencePromoter(x.d, x.caller, cmd.SignatoryID, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveGroup()
}

func (cmd RequestSignatures) handle(x *session) error {
	invited, err := x.group.RequestSignatures(x.d, x.caller, x.now)
	if err != nil {
		return err
	}
	if err := x.saveGroup(); err != nil {
		return err
	}
	to := recipientsOf(signatoriesByID(x.group.Members(), invited))
	return x.invite(TemplateSupervisionInvitation, to)
}

func (cmd ResendSupervisionInvitation) handle(x *session) error {
	s, err := x.group.ResendInvitation(x.d, x.caller, cmd.SignatoryID, x.now)
	if err != nil {
		return err
	}
	x.result = string(s.ID)
	if err := x.saveGroup(); err != nil {
		return err
	}
	return x.invite(TemplateSupervisionInvitation, []ports.Recipient{recipientOf(s.Identity)})
}

func (cmd ApproveSupervisionMember) handle(x *session) error {
	if _, err := x.group.ApproveMember(x.d, x.caller, cmd.SignatoryID, cmd.InternalComment, cmd.ExternalComment, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveGroup()
}

func (cmd ApproveSupervisionMemberByPDF) handle(x *session) error {
	if _, err := x.group.ApproveMemberByPDF(x.d, x.caller, cmd.SignatoryID, cmd.PDF, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveGroup()
}

func (cmd DeclineSupervisionMember) handle(x *session) error {
	err := x.group.DeclineMember(x.d, x.caller, cmd.SignatoryID, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, x.now)
	if err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveGroup()
}

func (cmd ResetSupervisionSignatures) handle(x *session) error {
	if err := x.group.ResetSignatures(x.d, x.caller, x.now); err != nil {
		return err
	}
	return x.saveGroup()
}

