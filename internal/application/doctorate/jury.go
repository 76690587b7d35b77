package doctorate

import (
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

func (cmd AddJuryMember) handle(x *session) error {
	id, err := x.ensureJury().AddMember(x.d, x.caller, cmd.Role, cmd.PersonID, cmd.External, x.now)
	if err != nil {
		return err
	}
	x.result = string(id)
	return x.saveJury()
}

func (cmd ModifyJuryMember) handle(x *session) error {
	if err := x.ensureJury().ModifyMember(x.d, x.caller, cmd.SignatoryID, cmd.PersonID, cmd.External, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveJury()
}

func (cmd RemoveJuryMember) handle(x *session) error {
	if err := x.ensureJury().RemoveMember(x.d, x.caller, cmd.SignatoryID, x.now); err != nil {
		return err
	}
	return x.saveJury()
}

func (cmd ModifyJuryMemberRole) handle(x *session) error {
	if err := x.ensureJury().ModifyMemberRole(x.d, x.caller, cmd.SignatoryID, cmd.Role, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveJury()
}

func (cmd SubmitJury) handle(x *session) error {
	j := x.ensureJury()
	invited, err := j.Submit(x.d, x.caller, x.now)
	if err != nil {
		return err
	}
	if err := x.saveJury(); err != nil {
		return err
	}
	if err := x.notify(TemplateJurySubmitted, people(x.inst.ADREManagerIDs), nil); err != nil {
		return err
	}
	return x.invite(TemplateJuryInvitation, recipientsOf(signatoriesByID(j.Signatories(), invited)))
}

func (cmd ResendJuryInvitation) handle(x *session) error {
	s, err := x.ensureJury().ResendInvitation(x.d, x.caller, cmd.SignatoryID, x.now)
	if err != nil {
		return err
	}
	x.result = string(s.ID)
	if err := x.saveJury(); err != nil {
		return err
	}
	return x.invite(TemplateJuryInvitation, []ports.Recipient{recipientOf(s.Identity)})
}

func (cmd ApproveJuryMember) handle(x *session) error {
	if _, err := x.ensureJury().ApproveMember(x.d, x.caller, cmd.SignatoryID, cmd.InternalComment, cmd.ExternalComment, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveJury()
}

func (cmd ApproveJuryMemberByPDF) handle(x *session) error {
	if _, err := x.ensureJury().ApproveMemberByPDF(x.d, x.caller, cmd.SignatoryID, cmd.PDF, x.now); err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveJury()
}

func (cmd DeclineJuryMember) handle(x *session) error {
	err := x.ensureJury().DeclineMember(x.d, x.caller, cmd.SignatoryID, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, x.now)
	if err != nil {
		return err
	}
	x.result = string(cmd.SignatoryID)
	return x.saveJury()
}

func (cmd ResetJurySignatures) handle(x *session) error {
	if err := x.ensureJury().ResetSignatures(x.d, x.caller, x.now); err != nil {
		return err
	}
	return x.saveJury()
}

func (cmd ApproveJuryByCDD) handle(x *session) error {
	if err := x.ensureJury().ApproveByCDD(x.d, x.caller, cmd.Comment, x.now); err != nil {
		return err
	}
	return x.saveJury()
}

func (cmd RejectJuryByCDD) handle(x *session) error {
	err := x.ensureJury().RejectByCDD(x.d, x.caller, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, x.now)
	if err != nil {
		return err
	}
	if err := x.saveJury(); err != nil {
		return err
	}
	return x.notify(TemplateJuryRejected, x.student(), x.promoters(), "reason", cmd.Reason)
}

// ApproveJuryByADRE opens the admissibility review.
func (cmd ApproveJuryByADRE) handle(x *session) error {
	a, err := x.ensureJury().ApproveByADRE(x.d, x.caller, cmd.Comment, x.now)
	if err != nil {
		return err
	}
	if err := x.saveJury(); err != nil {
		return err
	}
	x.result = string(a.ID)
	return x.saveAdmissibility(a)
}

func (cmd RejectJuryByADRE) handle(x *session) error {
	err := x.ensureJury().RejectByADRE(x.d, x.caller, cmd.Reason, cmd.InternalComment, cmd.ExternalComment, x.now)
	if err != nil {
		return err
	}
	if err := x.saveJury(); err != nil {
		return err
	}
	return x.notify(TemplateJuryRejected, x.student(), x.promoters(), "reason", cmd.Reason)
}
