package domain

import (
	"time"
)

// Admissibility is the jury review deciding whether the manuscript can be
// defended. A retake detaches it from the doctorate.
type Admissibility struct {
	ID                       AdmissibilityID
	DoctorateID              DoctorateID
	Active                   bool
	DecisionDate             *time.Time
	ThesisExamBoardOpinion   []string
	ManuscriptSubmissionDate *time.Time
	Minutes                  []string
	MinutesCanvas            []string
	Version                  int
	CreatedAt                time.Time
}

// NewAdmissibility creates the current admissibility of d.
func NewAdmissibility(d *Doctorate, at time.Time) *Admissibility {
	a := &Admissibility{
		ID:          NewAdmissibilityID(),
		DoctorateID: d.ID(),
		Active:      true,
		CreatedAt:   at,
	}
	d.attachAdmissibility(a.ID)
	return a
}

func (a *Admissibility) current(d *Doctorate) Check {
	return Require(a.Active && d.CurrentAdmissibilityID() == a.ID, ErrAdmissibilityNotActive)
}

// Modify replaces the review data.
func (a *Admissibility) Modify(d *Doctorate, c Caller, decisionDate *time.Time, opinion []string, manuscriptSubmissionDate *time.Time, at time.Time) error {
	if err := d.Check(ActionModifyAdmissibility, c); err != nil {
		return err
	}
	if err := Validate(a.current(d)); err != nil {
		return err
	}
	a.DecisionDate = copyTime(decisionDate)
	a.ThesisExamBoardOpinion = copyStrings(opinion)
	a.ManuscriptSubmissionDate = copyTime(manuscriptSubmissionDate)
	d.apply(ActionModifyAdmissibility, c, at)
	return nil
}

// Submit submits the review to the jury.
func (a *Admissibility) Submit(d *Doctorate, c Caller, at time.Time) error {
	if err := d.Check(ActionSubmitAdmissibility, c); err != nil {
		return err
	}
	err := Validate(
		a.current(d),
		Require(a.DecisionDate != nil && a.ManuscriptSubmissionDate != nil, ErrAdmissibilityIncomplete),
	)
	if err != nil {
		return err
	}
	d.apply(ActionSubmitAdmissibility, c, at)
	return nil
}

// SubmitMinutes attaches the minutes of the review.
func (a *Admissibility) SubmitMinutes(d *Doctorate, c Caller, minutes []string, at time.Time) error {
	if err := d.Check(ActionSubmitAdmissibilityMinutes, c); err != nil {
		return err
	}
	err := ValidatorList{
		Contract:   []Check{RequireDocs(minutes, ErrAdmissibilityMinutesAbsent)},
		Invariants: []Check{a.current(d)},
	}.Validate()
	if err != nil {
		return err
	}
	a.Minutes = copyStrings(minutes)
	d.apply(ActionSubmitAdmissibilityMinutes, c, at)
	return nil
}

func (a *Admissibility) decisionChecks(d *Doctorate) []Check {
	return []Check{a.current(d), RequireDocs(a.Minutes, ErrAdmissibilityMinutesAbsent)}
}

// Success accepts the manuscript and opens the current private defense,
// which is returned.
func (a *Admissibility) Success(d *Doctorate, c Caller, at time.Time) (*PrivateDefense, error) {
	if err := d.Check(ActionAdmissibilitySuccess, c); err != nil {
		return nil, err
	}
	if err := Validate(a.decisionChecks(d)...); err != nil {
		return nil, err
	}
	d.apply(ActionAdmissibilitySuccess, c, at)
	return NewPrivateDefense(d, at), nil
}

// Repeat detaches the review and returns the new current one.
func (a *Admissibility) Repeat(d *Doctorate, c Caller, msg Message, at time.Time) (*Admissibility, error) {
	if err := d.Check(ActionAdmissibilityRepeat, c); err != nil {
		return nil, err
	}
	err := ValidatorList{Contract: msg.Checks(), Invariants: a.decisionChecks(d)}.Validate()
	if err != nil {
		return nil, err
	}
	a.Active = false
	next := NewAdmissibility(d, at)
	d.apply(ActionAdmissibilityRepeat, c, at)
	return next, nil
}
