package domain

import (
	"strings"
	"time"
)

// PrivateDefense is one closed-doors defense before the jury. A retake
// detaches it from the doctorate.
type PrivateDefense struct {
	ID                       PrivateDefenseID
	DoctorateID              DoctorateID
	Active                   bool
	At                       *time.Time
	Place                    string
	ManuscriptSubmissionDate *time.Time
	Minutes                  []string
	MinutesCanvas            []string
	Version                  int
	CreatedAt                time.Time
}

// NewPrivateDefense creates the current private defense of d.
func NewPrivateDefense(d *Doctorate, at time.Time) *PrivateDefense {
	p := &PrivateDefense{
		ID:          NewPrivateDefenseID(),
		DoctorateID: d.ID(),
		Active:      true,
		CreatedAt:   at,
	}
	d.attachPrivateDefense(p.ID)
	return p
}

func (p *PrivateDefense) current(d *Doctorate) Check {
	return Require(p.Active && d.CurrentPrivateDefenseID() == p.ID, ErrPrivateDefenseNotActive)
}

func (p *PrivateDefense) scheduled() Check {
	return Require(p.At != nil && strings.TrimSpace(p.Place) != "", ErrPrivateDefenseSubmissionIncomplete)
}

func formula(d *Doctorate, combined bool) Check {
	return Require(d.IsCombinedDefense() == combined, ErrDefenseFormulaMismatch)
}

// Modify replaces the planning of the defense.
func (p *PrivateDefense) Modify(d *Doctorate, c Caller, at *time.Time, place string, manuscriptSubmissionDate *time.Time, now time.Time) error {
	if err := d.Check(ActionModifyPrivateDefense, c); err != nil {
		return err
	}
	if err := Validate(p.current(d)); err != nil {
		return err
	}
	p.At = copyTime(at)
	p.Place = place
	p.ManuscriptSubmissionDate = copyTime(manuscriptSubmissionDate)
	d.apply(ActionModifyPrivateDefense, c, now)
	return nil
}

// Submit submits the planning. A combined defense also needs the public
// defense announcement.
func (p *PrivateDefense) Submit(d *Doctorate, c Caller, at time.Time) error {
	if err := d.Check(ActionSubmitPrivateDefense, c); err != nil {
		return err
	}
	checks := []Check{
		p.current(d),
		Require(p.At != nil && strings.TrimSpace(p.Place) != "" && p.ManuscriptSubmissionDate != nil, ErrPrivateDefenseSubmissionIncomplete),
	}
	if d.IsCombinedDefense() {
		pd := d.PublicDefense()
		checks = append(checks,
			Require(pd.Language != "" && len(pd.AnnouncementPhoto) > 0, ErrPublicDefenseIncomplete),
			RequireText(d.JuryPreparation().ProposedTitle, ErrDefenseMethodIncomplete),
		)
	}
	if err := Validate(checks...); err != nil {
		return err
	}
	d.apply(ActionSubmitPrivateDefense, c, at)
	return nil
}

// Authorise allows a separate private defense to take place.
func (p *PrivateDefense) Authorise(d *Doctorate, c Caller, msg Message, at time.Time) error {
	return p.authorise(d, c, ActionAuthorisePrivateDefense, false, msg, at)
}

// AuthoriseCombined allows a combined private and public defense.
func (p *PrivateDefense) AuthoriseCombined(d *Doctorate, c Caller, msg Message, at time.Time) error {
	return p.authorise(d, c, ActionAuthorisePrivateAndPublic, true, msg, at)
}

func (p *PrivateDefense) authorise(d *Doctorate, c Caller, action Action, combined bool, msg Message, at time.Time) error {
	if err := d.Check(action, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract:   msg.Checks(),
		Invariants: []Check{p.current(d), formula(d, combined), p.scheduled()},
	}.Validate()
	if err != nil {
		return err
	}
	d.apply(action, c, at)
	return nil
}

// InviteJury records the invitation of the jury to the scheduled defense.
func (p *PrivateDefense) InviteJury(d *Doctorate, c Caller, at time.Time) error {
	if err := d.Check(ActionInviteJuryToPrivateDefense, c); err != nil {
		return err
	}
	if err := Validate(p.current(d), p.scheduled()); err != nil {
		return err
	}
	d.apply(ActionInviteJuryToPrivateDefense, c, at)
	return nil
}

// SubmitMinutes attaches the minutes of the defense.
func (p *PrivateDefense) SubmitMinutes(d *Doctorate, c Caller, minutes []string, at time.Time) error {
	return p.submitMinutes(d, c, ActionSubmitPrivateDefenseMinutes, minutes, at)
}

// SubmitCombinedMinutes attaches the minutes of a combined defense to both
// the private and the public defense.
func (p *PrivateDefense) SubmitCombinedMinutes(d *Doctorate, c Caller, minutes []string, at time.Time) error {
	if err := p.submitMinutes(d, c, ActionSubmitCombinedMinutes, minutes, at); err != nil {
		return err
	}
	d.publicDefense.Minutes = copyStrings(minutes)
	return nil
}

func (p *PrivateDefense) submitMinutes(d *Doctorate, c Caller, action Action, minutes []string, at time.Time) error {
	if err := d.Check(action, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract:   []Check{RequireDocs(minutes, ErrPrivateDefenseIncomplete)},
		Invariants: []Check{p.current(d)},
	}.Validate()
	if err != nil {
		return err
	}
	p.Minutes = copyStrings(minutes)
	d.apply(action, c, at)
	return nil
}

func (p *PrivateDefense) decisionChecks(d *Doctorate) []Check {
	return []Check{
		p.current(d),
		Require(len(p.Minutes) > 0 && p.At != nil, ErrPrivateDefenseIncomplete),
	}
}

func (p *PrivateDefense) decide(d *Doctorate, c Caller, action Action, msg *Message, at time.Time) error {
	if err := d.Check(action, c); err != nil {
		return err
	}
	v := ValidatorList{Invariants: p.decisionChecks(d)}
	if msg != nil {
		v.Contract = msg.Checks()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	d.apply(action, c, at)
	return nil
}

// Success records a successful private defense.
func (p *PrivateDefense) Success(d *Doctorate, c Caller, at time.Time) error {
	return p.decide(d, c, ActionPrivateDefenseSuccess, nil, at)
}

// Fail records a failed private defense; the trajectory ends.
func (p *PrivateDefense) Fail(d *Doctorate, c Caller, msg Message, at time.Time) error {
	return p.decide(d, c, ActionPrivateDefenseFail, &msg, at)
}

// Repeat detaches the defense and returns the new current one, without
// minutes nor date.
func (p *PrivateDefense) Repeat(d *Doctorate, c Caller, msg Message, at time.Time) (*PrivateDefense, error) {
	if err := p.decide(d, c, ActionPrivateDefenseRepeat, &msg, at); err != nil {
		return nil, err
	}
	p.Active = false
	return NewPrivateDefense(d, at), nil
}

// CombinedSuccess records a successful combined defense; the student is
// proclaimed.
func (p *PrivateDefense) CombinedSuccess(d *Doctorate, c Caller, at time.Time) error {
	return p.decide(d, c, ActionCombinedDefenseSuccess, nil, at)
}

// CombinedFailure records a failed combined defense.
func (p *PrivateDefense) CombinedFailure(d *Doctorate, c Caller, msg Message, at time.Time) error {
	return p.decide(d, c, ActionCombinedDefenseFailure, &msg, at)
}
