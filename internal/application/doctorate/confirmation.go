package doctorate

import (
	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

// Certificate task kinds.
const (
	TaskKindConfirmationSuccess = "confirmation-success-certificate"
	TaskKindConfirmationFailure = "confirmation-failure-certificate"
)

func (cmd SubmitConfirmation) handle(x *session) error {
	p, err := x.activePaper(domain.ActionSubmitConfirmation)
	if err != nil {
		return err
	}
	if err := p.Submit(x.d, x.caller, cmd.Date, cmd.ResearchReport, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePaper(p); err != nil {
		return err
	}
	return x.notify(TemplateConfirmationSubmitted, people(x.inst.ADREManagerIDs), nil)
}

func (cmd ModifyConfirmation) handle(x *session) error {
	p, err := x.activePaper(domain.ActionModifyConfirmation)
	if err != nil {
		return err
	}
	if err := p.ModifyByCDD(x.d, x.caller, cmd.Date, cmd.Deadline, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePaper(p)
}

func (cmd SubmitExtensionRequest) handle(x *session) error {
	p, err := x.activePaper(domain.ActionSubmitExtensionRequest)
	if err != nil {
		return err
	}
	if err := p.SubmitExtensionRequest(x.d, x.caller, cmd.NewDeadline, cmd.Justification, cmd.Letter, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePaper(p)
}

func (cmd RecordCDDOpinion) handle(x *session) error {
	p, err := x.activePaper(domain.ActionRecordCDDOpinion)
	if err != nil {
		return err
	}
	if err := p.RecordCDDOpinion(x.d, x.caller, cmd.Opinion, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePaper(p)
}

func (cmd CompleteConfirmation) handle(x *session) error {
	p, err := x.activePaper(domain.ActionCompleteConfirmation)
	if err != nil {
		return err
	}
	if err := p.CompleteByPromoter(x.d, x.caller, cmd.SupervisorPanelReport, cmd.ResearchMandateRenewalOpinion, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePaper(p)
}

func (cmd ConfirmSuccess) handle(x *session) error {
	p, err := x.activePaper(domain.ActionConfirmSuccess)
	if err != nil {
		return err
	}
	if err := p.DecideSuccess(x.d, x.caller, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePaper(p); err != nil {
		return err
	}
	return x.certificate(p, TaskKindConfirmationSuccess)
}

func (cmd ConfirmFailure) handle(x *session) error {
	p, err := x.activePaper(domain.ActionConfirmFailure)
	if err != nil {
		return err
	}
	if err := p.DecideFailure(x.d, x.caller, cmd.Message, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	if err := x.savePaper(p); err != nil {
		return err
	}
	cc := append(people(x.inst.ADREManagerIDs), people(x.inst.ADRIManagerIDs)...)
	if err := x.mail(cmd.Message, x.student(), cc); err != nil {
		return err
	}
	return x.certificate(p, TaskKindConfirmationFailure)
}

func (cmd ConfirmRetake) handle(x *session) error {
	p, err := x.activePaper(domain.ActionConfirmRetake)
	if err != nil {
		return err
	}
	next, err := p.DecideRetake(x.d, x.caller, cmd.Message, cmd.NewDeadline, x.now)
	if err != nil {
		return err
	}
	if err := x.savePaper(p); err != nil {
		return err
	}
	if err := x.savePaper(next); err != nil {
		return err
	}
	x.result = string(next.ID)
	return x.mail(cmd.Message, x.student(), nil)
}

func (cmd RecordConfirmationCertificate) handle(x *session) error {
	p, err := x.activePaper(domain.ActionRecordConfirmationCertified)
	if err != nil {
		return err
	}
	if err := p.RecordCertificate(x.d, x.caller, cmd.Certificate, x.now); err != nil {
		return err
	}
	x.result = string(p.ID)
	return x.savePaper(p)
}

// certificate schedules the generation of the decision certificate. The
// job writes it back with RecordConfirmationCertificate.
func (x *session) certificate(p *domain.ConfirmationPaper, kind string) error {
	return x.schedule(ports.Task{
		Name:        TaskGenerateCertificate,
		Description: "Confirmation certificate of " + x.d.Reference(),
		Owner:       x.d.StudentID(),
		Kind:        kind,
		Context: map[string]string{
			"doctorate_id": string(x.d.ID()),
			"paper_id":     string(p.ID),
		},
	})
}
