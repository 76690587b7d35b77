package domain

import (
	"time"
)

// ConfirmationDelayMonths is the time granted after admission to pass the
// first confirmation paper.
const ConfirmationDelayMonths = 24

// ConfirmationPaper is one attempt at the confirmation examination. Only
// the active paper of a doctorate changes; older ones are kept as history.
type ConfirmationPaper struct {
	ID                            ConfirmationPaperID
	DoctorateID                   DoctorateID
	Active                        bool
	Date                          *time.Time
	Deadline                      *time.Time
	ResearchReport                []string
	SupervisorPanelReport         []string
	ResearchMandateRenewalOpinion []string
	ExtendedDeadline              *time.Time
	ExtensionJustification        string
	ExtensionLetter               []string
	CDDOpinion                    string
	CertificateOfAchievement      []string
	CertificateOfFailure          []string
	Minutes                       []string
	MinutesCanvas                 []string
	Version                       int
	CreatedAt                     time.Time
}

// NewConfirmationPaper opens the first paper of a doctorate, due
// ConfirmationDelayMonths after admission.
func NewConfirmationPaper(d *Doctorate, at time.Time) *ConfirmationPaper {
	deadline := d.AdmittedAt().AddDate(0, ConfirmationDelayMonths, 0)
	return &ConfirmationPaper{
		ID:          NewConfirmationPaperID(),
		DoctorateID: d.ID(),
		Active:      true,
		Deadline:    &deadline,
		CreatedAt:   at,
	}
}

func (p *ConfirmationPaper) active() Check {
	return Require(p.Active, ErrConfirmationPaperNotFound)
}

// datesInOrder checks date ≤ deadline ≤ extended deadline when set.
func datesInOrder(date, deadline, extended *time.Time) Check {
	ok := true
	if date != nil && deadline != nil && date.After(*deadline) {
		ok = false
	}
	if deadline != nil && extended != nil && deadline.After(*extended) {
		ok = false
	}
	return Require(ok, ErrConfirmationDatesInconsistent)
}

// Submit records the date and research report and submits the paper.
func (p *ConfirmationPaper) Submit(d *Doctorate, c Caller, date *time.Time, report []string, at time.Time) error {
	if err := d.Check(ActionSubmitConfirmation, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract: []Check{
			RequireTime(date, ErrConfirmationDateMissing),
			RequireDocs(report, ErrResearchReportMissing),
		},
		Invariants: []Check{
			p.active(),
			datesInOrder(date, p.Deadline, p.ExtendedDeadline),
		},
	}.Validate()
	if err != nil {
		return err
	}
	p.Date = copyTime(date)
	p.ResearchReport = copyStrings(report)
	d.apply(ActionSubmitConfirmation, c, at)
	return nil
}

// ModifyByCDD lets the CDD correct the date and deadline of the active paper.
func (p *ConfirmationPaper) ModifyByCDD(d *Doctorate, c Caller, date, deadline *time.Time, at time.Time) error {
	if err := d.Check(ActionModifyConfirmation, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract:   []Check{RequireTime(deadline, ErrConfirmationDeadlineMissing)},
		Invariants: []Check{p.active(), datesInOrder(date, deadline, p.ExtendedDeadline)},
	}.Validate()
	if err != nil {
		return err
	}
	p.Date = copyTime(date)
	p.Deadline = copyTime(deadline)
	d.apply(ActionModifyConfirmation, c, at)
	return nil
}

// SubmitExtensionRequest asks for a later deadline.
func (p *ConfirmationPaper) SubmitExtensionRequest(d *Doctorate, c Caller, newDeadline *time.Time, justification string, letter []string, at time.Time) error {
	if err := d.Check(ActionSubmitExtensionRequest, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract: []Check{
			FirstOf(
				RequireTime(newDeadline, ErrExtensionRequestIncomplete),
				RequireText(justification, ErrExtensionRequestIncomplete),
				RequireDocs(letter, ErrExtensionRequestIncomplete),
			),
		},
		Invariants: []Check{
			p.active(),
			Require(p.Deadline != nil, ErrConfirmationDeadlineMissing),
			datesInOrder(p.Date, p.Deadline, newDeadline),
		},
	}.Validate()
	if err != nil {
		return err
	}
	p.ExtendedDeadline = copyTime(newDeadline)
	p.ExtensionJustification = justification
	p.ExtensionLetter = copyStrings(letter)
	d.apply(ActionSubmitExtensionRequest, c, at)
	return nil
}

// RecordCDDOpinion stores the free-text opinion of the CDD.
func (p *ConfirmationPaper) RecordCDDOpinion(d *Doctorate, c Caller, opinion string, at time.Time) error {
	if err := d.Check(ActionRecordCDDOpinion, c); err != nil {
		return err
	}
	if err := Validate(p.active()); err != nil {
		return err
	}
	p.CDDOpinion = opinion
	d.apply(ActionRecordCDDOpinion, c, at)
	return nil
}

// CompleteByPromoter attaches the supervisor panel report and the research
// mandate renewal opinion.
func (p *ConfirmationPaper) CompleteByPromoter(d *Doctorate, c Caller, panelReport, renewalOpinion []string, at time.Time) error {
	if err := d.Check(ActionCompleteConfirmation, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract:   []Check{RequireDocs(panelReport, ErrConfirmationDocsMissing)},
		Invariants: []Check{p.active()},
	}.Validate()
	if err != nil {
		return err
	}
	p.SupervisorPanelReport = copyStrings(panelReport)
	p.ResearchMandateRenewalOpinion = copyStrings(renewalOpinion)
	d.apply(ActionCompleteConfirmation, c, at)
	return nil
}

func (p *ConfirmationPaper) decisionChecks() []Check {
	return []Check{
		p.active(),
		RequireTime(p.Date, ErrConfirmationDateMissing),
		RequireDocs(p.ResearchReport, ErrResearchReportMissing),
	}
}

// DecideSuccess records a favorable decision.
func (p *ConfirmationPaper) DecideSuccess(d *Doctorate, c Caller, at time.Time) error {
	if err := d.Check(ActionConfirmSuccess, c); err != nil {
		return err
	}
	if err := Validate(p.decisionChecks()...); err != nil {
		return err
	}
	d.apply(ActionConfirmSuccess, c, at)
	return nil
}

// DecideFailure records an unfavorable decision; the student may not
// continue.
func (p *ConfirmationPaper) DecideFailure(d *Doctorate, c Caller, msg Message, at time.Time) error {
	if err := d.Check(ActionConfirmFailure, c); err != nil {
		return err
	}
	err := ValidatorList{Contract: msg.Checks(), Invariants: p.decisionChecks()}.Validate()
	if err != nil {
		return err
	}
	d.apply(ActionConfirmFailure, c, at)
	return nil
}

// DecideRetake deactivates the paper and returns the new active one, due at
// newDeadline.
func (p *ConfirmationPaper) DecideRetake(d *Doctorate, c Caller, msg Message, newDeadline *time.Time, at time.Time) (*ConfirmationPaper, error) {
	if err := d.Check(ActionConfirmRetake, c); err != nil {
		return nil, err
	}
	err := ValidatorList{
		Contract:   append(msg.Checks(), RequireTime(newDeadline, ErrNewDeadlineMissing)),
		Invariants: p.decisionChecks(),
	}.Validate()
	if err != nil {
		return nil, err
	}
	p.Active = false
	next := &ConfirmationPaper{
		ID:          NewConfirmationPaperID(),
		DoctorateID: d.ID(),
		Active:      true,
		Deadline:    copyTime(newDeadline),
		CreatedAt:   at,
	}
	d.apply(ActionConfirmRetake, c, at)
	return next, nil
}

// RecordCertificate stores the generated certificate of the decision.
func (p *ConfirmationPaper) RecordCertificate(d *Doctorate, c Caller, certificate []string, at time.Time) error {
	if err := d.Check(ActionRecordConfirmationCertified, c); err != nil {
		return err
	}
	if d.Status() == StatusNotAuthorizedToContinue {
		p.CertificateOfFailure = copyStrings(certificate)
	} else {
		p.CertificateOfAchievement = copyStrings(certificate)
	}
	d.apply(ActionRecordConfirmationCertified, c, at)
	return nil
}

// ActivePaper returns the active paper among papers.
func ActivePaper(papers []*ConfirmationPaper) (*ConfirmationPaper, error) {
	for _, p := range papers {
		if p.Active {
			return p, nil
		}
	}
	return nil, ErrConfirmationPaperNotFound
}
