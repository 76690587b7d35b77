package domain

import (
	"time"
)

// ModifyPublicDefense replaces the public defense planning. Minutes are kept.
func (d *Doctorate) ModifyPublicDefense(c Caller, pd PublicDefense, at time.Time) error {
	if err := d.Check(ActionModifyPublicDefense, c); err != nil {
		return err
	}
	pd.At = copyTime(pd.At)
	pd.AnnouncementPhoto = copyStrings(pd.AnnouncementPhoto)
	pd.Minutes = d.publicDefense.Minutes
	pd.MinutesCanvas = d.publicDefense.MinutesCanvas
	d.publicDefense = pd
	d.apply(ActionModifyPublicDefense, c, at)
	return nil
}

// SubmitPublicDefense submits the public defense announcement.
func (d *Doctorate) SubmitPublicDefense(c Caller, at time.Time) error {
	if err := d.Check(ActionSubmitPublicDefense, c); err != nil {
		return err
	}
	pd := d.publicDefense
	err := Validate(Require(pd.Language != "" && pd.At != nil && len(pd.AnnouncementPhoto) > 0, ErrPublicDefenseIncomplete))
	if err != nil {
		return err
	}
	d.apply(ActionSubmitPublicDefense, c, at)
	return nil
}

// AuthorisePublicDefense allows the public defense to take place.
func (d *Doctorate) AuthorisePublicDefense(c Caller, at time.Time) error {
	return d.Fire(ActionAuthorisePublicDefense, c, at)
}

// SubmitPublicDefenseMinutes attaches the minutes of the public defense.
func (d *Doctorate) SubmitPublicDefenseMinutes(c Caller, minutes []string, at time.Time) error {
	if err := d.Check(ActionSubmitPublicDefenseMinutes, c); err != nil {
		return err
	}
	if err := Validate(RequireDocs(minutes, ErrPublicDefenseDecisionIncomplete)); err != nil {
		return err
	}
	d.publicDefense.Minutes = copyStrings(minutes)
	d.apply(ActionSubmitPublicDefenseMinutes, c, at)
	return nil
}

// PublicDefenseSuccess proclaims the student.
func (d *Doctorate) PublicDefenseSuccess(c Caller, at time.Time) error {
	if err := d.Check(ActionPublicDefenseSuccess, c); err != nil {
		return err
	}
	pd := d.publicDefense
	if err := Validate(Require(len(pd.Minutes) > 0 && pd.At != nil, ErrPublicDefenseDecisionIncomplete)); err != nil {
		return err
	}
	d.apply(ActionPublicDefenseSuccess, c, at)
	return nil
}
