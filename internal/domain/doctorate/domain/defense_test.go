package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

var defenseMessage = Message{Subject: "Private defense", Body: "Details"}

func authorizedDefense(t *testing.T) (*Doctorate, *PrivateDefense) {
	t.Helper()
	d := inStatus(t, StatusPrivateDefenseAuthorized)
	p := NewPrivateDefense(d, testNow)
	p.At = DatePtr(2022, time.May, 10)
	p.Place = "Room 101"
	p.Minutes = []string{"minutes-1"}
	return d, p
}

func TestAdmissibility_SubmitAndSucceed(t *testing.T) {
	d := inStatus(t, StatusJuryApprovedADRE)
	a := NewAdmissibility(d, testNow)

	err := a.Submit(d, student, testNow)
	assert.True(t, dterrors.HasCode(err, ErrAdmissibilityIncomplete.Code))

	require.NoError(t, a.Modify(d, student, DatePtr(2022, time.April, 1), nil, DatePtr(2022, time.March, 15), testNow))
	require.NoError(t, a.Submit(d, student, testNow))
	assert.Equal(t, StatusAdmissibilitySubmitted, d.Status())

	_, err = a.Success(d, cddManager, testNow)
	assert.True(t, dterrors.HasCode(err, ErrAdmissibilityMinutesAbsent.Code))

	require.NoError(t, a.SubmitMinutes(d, cddManager, []string{"minutes"}, testNow))
	p, err := a.Success(d, cddManager, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusAdmissibilitySucceeded, d.Status())
	assert.Equal(t, p.ID, d.CurrentPrivateDefenseID())
}

func TestAdmissibility_Repeat(t *testing.T) {
	d := inStatus(t, StatusAdmissibilitySubmitted)
	a1 := NewAdmissibility(d, testNow)
	a1.Minutes = []string{"minutes"}

	a2, err := a1.Repeat(d, cddManager, Message{Subject: "S", Body: "B"}, testNow)

	require.NoError(t, err)
	assert.False(t, a1.Active)
	assert.Equal(t, a2.ID, d.CurrentAdmissibilityID())
	assert.Equal(t, StatusAdmissibilityToRepeat, d.Status())

	err = a1.Modify(d, student, nil, nil, nil, testNow)
	assert.True(t, dterrors.HasCode(err, ErrAdmissibilityNotActive.Code))
}

func TestPrivateDefense_Repeat(t *testing.T) {
	d, p1 := authorizedDefense(t)

	p2, err := p1.Repeat(d, cddManager, defenseMessage, testNow)

	require.NoError(t, err)
	assert.False(t, p1.Active)
	assert.True(t, p2.Active)
	assert.Nil(t, p2.Minutes)
	assert.Nil(t, p2.At)
	assert.Equal(t, p2.ID, d.CurrentPrivateDefenseID())
	assert.Equal(t, StatusPrivateDefenseToRepeat, d.Status())
	assert.Equal(t, []string{PhasePrivateDefense, TagStatusChanged}, lastActionEvent(t, d).Tags)
}

func TestPrivateDefense_DecisionRequiresMinutes(t *testing.T) {
	tests := []struct {
		name   string
		decide func(d *Doctorate, p *PrivateDefense) error
	}{
		{name: "success", decide: func(d *Doctorate, p *PrivateDefense) error { return p.Success(d, cddManager, testNow) }},
		{name: "fail", decide: func(d *Doctorate, p *PrivateDefense) error { return p.Fail(d, cddManager, defenseMessage, testNow) }},
		{name: "repeat", decide: func(d *Doctorate, p *PrivateDefense) error {
			_, err := p.Repeat(d, cddManager, defenseMessage, testNow)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, p := authorizedDefense(t)
			p.Minutes = nil

			err := tt.decide(d, p)

			assert.True(t, dterrors.HasCode(err, ErrPrivateDefenseIncomplete.Code))
			assert.Equal(t, StatusPrivateDefenseAuthorized, d.Status())
			assert.True(t, p.Active)
		})
	}
}

func TestPrivateDefense_AuthoriseChecksFormula(t *testing.T) {
	d := inStatus(t, StatusPrivateDefenseSubmitted)
	d.juryPreparation.Formula = FormulaCombined
	p := NewPrivateDefense(d, testNow)
	p.At = DatePtr(2022, time.May, 10)
	p.Place = "Room 101"

	err := p.Authorise(d, cddManager, defenseMessage, testNow)
	assert.True(t, dterrors.HasCode(err, ErrDefenseFormulaMismatch.Code))

	require.NoError(t, p.AuthoriseCombined(d, cddManager, defenseMessage, testNow))
	assert.Equal(t, StatusDefenseAndSoutenanceAuthorized, d.Status())

	require.NoError(t, p.SubmitCombinedMinutes(d, cddManager, []string{"minutes"}, testNow))
	assert.Equal(t, []string{"minutes"}, d.PublicDefense().Minutes)
	require.NoError(t, p.CombinedSuccess(d, cddManager, testNow))
	assert.Equal(t, StatusProclaimed, d.Status())
}

func TestPrivateDefense_AuthoriseWrongStatus(t *testing.T) {
	d, p := authorizedDefense(t)

	err := p.Authorise(d, cddManager, defenseMessage, testNow)

	assert.True(t, dterrors.HasCode(err, ErrStatusNotPrivateDefenseSubmitted.Code))
}

func TestPrivateDefense_SubmitCombinedNeedsAnnouncement(t *testing.T) {
	d := inStatus(t, StatusAdmissibilitySucceeded)
	d.juryPreparation.Formula = FormulaCombined
	p := NewPrivateDefense(d, testNow)
	require.NoError(t, p.Modify(d, student, DatePtr(2022, time.May, 10), "Room 101", DatePtr(2022, time.April, 1), testNow))

	err := p.Submit(d, student, testNow)

	assert.ElementsMatch(t, []string{ErrPublicDefenseIncomplete.Code, ErrDefenseMethodIncomplete.Code}, dterrors.BusinessCodes(err))
	assert.Equal(t, StatusAdmissibilitySucceeded, d.Status())
}

func TestPublicDefense_ToProclamation(t *testing.T) {
	d := inStatus(t, StatusPrivateDefenseSucceeded)

	err := d.SubmitPublicDefense(student, testNow)
	assert.True(t, dterrors.HasCode(err, ErrPublicDefenseIncomplete.Code))

	require.NoError(t, d.ModifyPublicDefense(student, PublicDefense{
		Language:          "FR",
		At:                DatePtr(2022, time.June, 20),
		Place:             "Aula Magna",
		AnnouncementPhoto: []string{"photo"},
	}, testNow))
	require.NoError(t, d.SubmitPublicDefense(student, testNow))
	require.NoError(t, d.AuthorisePublicDefense(cddManager, testNow))

	err = d.PublicDefenseSuccess(cddManager, testNow)
	assert.True(t, dterrors.HasCode(err, ErrPublicDefenseDecisionIncomplete.Code))

	require.NoError(t, d.SubmitPublicDefenseMinutes(cddManager, []string{"minutes"}, testNow))
	require.NoError(t, d.PublicDefenseSuccess(cddManager, testNow))
	assert.Equal(t, StatusProclaimed, d.Status())
	assert.True(t, d.Status().IsFinal())
}

func TestPublicDefense_SubmitOutsideStep(t *testing.T) {
	d := inStatus(t, StatusAdmitted)

	err := d.SubmitPublicDefense(student, testNow)

	assert.True(t, dterrors.HasCode(err, ErrPublicDefenseNotInProgress.Code))
}
