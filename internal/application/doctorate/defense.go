package doctorate

import (
	"time"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
)

const dateTimeLayout = "2006-01-02 15:04"

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateTimeLayout)
}

// Admissibility.

func (cmd ModifyAdmissibility) handle(x *session) error {
	a, err := x.admissibility(domain.ActionModifyAdmissibility)
	if err != nil {
		return err
	}
	if err := a.Modify(x.d, x.caller, cmd.DecisionDate, cmd.ThesisExamBoardOpinion, cmd.ManuscriptSubmissionDate, x.now); err != nil {
		return err
	}
	x.result = string(a.ID)
	return x.saveAdmissibility(a)
}

func (cmd SubmitAdmissibility) handle(x *session) error {
	a, err := x.admissibility(domain.ActionSubmitAdmissibility)
	if err != nil {
		return err
	}
	if err := a.Submit(x.d, x.caller, x.now); err != nil {
		return err
	}
	x.result = string(a.ID)
	return x.saveAdmissibility(a)
}

func (cmd SubmitAdmissibilityMinutes) handle(x *session) error {
	a, err := x.admissibility(domain.ActionSubmitAdmissibilityMinutes)
	if err != nil {
		return err
	}
	if err := a.SubmitMinutes(x.d, x.caller, cmd.Minutes, x.now); err != nil {
		return err
	}
	x.result = string(a.ID)
	return x.saveAdmissibility(a)
}

// AdmissibilitySuccess opens the private defense.
func (cmd AdmissibilitySuccess) handle(x *session) error {
	a, err := x.admissibility(domain.ActionAdmissibilitySuccess)
	if err != nil {
		return err
	}
	p, err := a.Success(x.d, x.caller, x.now)
	if err != nil {
		return err
	}
	if err := x.saveAdmissibility(a); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePrivateDefense(p)
}

func (cmd AdmissibilityRepeat) handle(x *session) error {
	a, err := x.admissibility(domain.ActionAdmissibilityRepeat)
	if err != nil {
		return err
	}
	next, err := a.Repeat(x.d, x.caller, cmd.Message, x.now)
	if err != nil {
		return err
	}
	if err := x.saveAdmissibility(a); err != nil {
		return err
	}
	if err := x.saveAdmissibility(next); err != nil {
		return err
	}
	x.result = string(next.ID)
	return x.mail(cmd.Message, x.student(), nil)
}

// Private defense.

func (cmd ModifyPrivateDefense) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionModifyPrivateDefense)
	if err != nil {
		return err
	}
	if err := p.Modify(x.d, x.caller, cmd.At, cmd.Place, cmd.ManuscriptSubmissionDate, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePrivateDefense(p)
}

func (cmd SubmitPrivateDefense) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionSubmitPrivateDefense)
	if err != nil {
		return err
	}
	if err := p.Submit(x.d, x.caller, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.notify(TemplatePrivateDefenseSubmitted, people(x.inst.ADREManagerIDs), nil,
		"defense_at", formatTime(p.At), "place", p.Place)
}

func (cmd AuthorisePrivateDefense) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionAuthorisePrivateDefense)
	if err != nil {
		return err
	}
	if err := p.Authorise(x.d, x.caller, cmd.Message, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.mail(cmd.Message, x.student(), x.promoters())
}

func (cmd AuthorisePrivateAndPublicDefense) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionAuthorisePrivateAndPublic)
	if err != nil {
		return err
	}
	if err := p.AuthoriseCombined(x.d, x.caller, cmd.Message, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.mail(cmd.Message, x.student(), x.promoters())
}

func (cmd InviteJuryToPrivateDefense) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionInviteJuryToPrivateDefense)
	if err != nil {
		return err
	}
	if err := p.InviteJury(x.d, x.caller, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.notify(TemplatePrivateDefenseInvite, x.juryMembers(), nil,
		"defense_at", formatTime(p.At), "place", p.Place)
}

func (cmd SubmitPrivateDefenseMinutes) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionSubmitPrivateDefenseMinutes)
	if err != nil {
		return err
	}
	if err := p.SubmitMinutes(x.d, x.caller, cmd.Minutes, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePrivateDefense(p)
}

func (cmd PrivateDefenseSuccess) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionPrivateDefenseSuccess)
	if err != nil {
		return err
	}
	if err := p.Success(x.d, x.caller, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.notify(TemplatePrivateDefenseSuccess, x.student(), x.promoters())
}

func (cmd PrivateDefenseFail) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionPrivateDefenseFail)
	if err != nil {
		return err
	}
	if err := p.Fail(x.d, x.caller, cmd.Message, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.mail(cmd.Message, x.student(), x.promoters())
}

func (cmd PrivateDefenseRepeat) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionPrivateDefenseRepeat)
	if err != nil {
		return err
	}
	next, err := p.Repeat(x.d, x.caller, cmd.Message, x.now)
	if err != nil {
		return err
	}
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	if err := x.savePrivateDefense(next); err != nil {
		return err
	}
	x.result = string(next.ID)
	return x.mail(cmd.Message, x.student(), x.promoters())
}

func (cmd SubmitCombinedMinutes) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionSubmitCombinedMinutes)
	if err != nil {
		return err
	}
	if err := p.SubmitCombinedMinutes(x.d, x.caller, cmd.Minutes, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePrivateDefense(p)
}

func (cmd CombinedDefenseSuccess) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionCombinedDefenseSuccess)
	if err != nil {
		return err
	}
	if err := p.CombinedSuccess(x.d, x.caller, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.proclaimed()
}

func (cmd CombinedDefenseFailure) handle(x *session) error {
	p, err := x.privateDefense(domain.ActionCombinedDefenseFailure)
	if err != nil {
		return err
	}
	if err := p.CombinedFailure(x.d, x.caller, cmd.Message, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePrivateDefense(p); err != nil {
		return err
	}
	return x.mail(cmd.Message, x.student(), x.promoters())
}

// Public defense.

func (cmd ModifyPublicDefense) handle(x *session) error {
	return x.d.ModifyPublicDefense(x.caller, cmd.PublicDefense, x.now)
}

func (cmd SubmitPublicDefense) handle(x *session) error {
	return x.d.SubmitPublicDefense(x.caller, x.now)
}

func (cmd AuthorisePublicDefense) handle(x *session) error {
	if err := x.d.AuthorisePublicDefense(x.caller, x.now); err != nil {
		return err
	}
	pd := x.d.PublicDefense()
	return x.notify(TemplatePublicDefenseAuthorised, x.juryMembers(), nil,
		"defense_at", formatTime(pd.At), "place", pd.Place, "language", pd.Language)
}

func (cmd SubmitPublicDefenseMinutes) handle(x *session) error {
	return x.d.SubmitPublicDefenseMinutes(x.caller, cmd.Minutes, x.now)
}

func (cmd PublicDefenseSuccess) handle(x *session) error {
	if err := x.d.PublicDefenseSuccess(x.caller, x.now); err != nil {
		return err
	}
	return x.proclaimed()
}

// proclaimed tells the student, with the SCEB managers and the promoters
// in copy.
func (x *session) proclaimed() error {
	cc := append(people(x.inst.SCEBManagerIDs), x.promoters()...)
	return x.notify(TemplateProclaimed, x.student(), cc)
}
