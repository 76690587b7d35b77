package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

type juryFixture struct {
	d         *Doctorate
	j         *Jury
	promoter  SignatoryID
	president SignatoryID
	secretary SignatoryID
	external  SignatoryID
}

// readyJury builds a submittable jury in CONFIRMATION_SUCCEEDED: the
// supervision promoter, a president, a secretary and an external member.
func readyJury(t *testing.T) *juryFixture {
	t.Helper()
	d := inStatus(t, StatusConfirmationSucceeded)
	d.juryPreparation = JuryPreparation{
		ProposedTitle:     "Thesis",
		Formula:           FormulaSeparate,
		IndicativeDate:    DatePtr(2024, time.June, 1),
		RedactionLanguage: "EN",
		DefenseLanguage:   "EN",
	}
	g := NewSupervisionGroup(d)
	g.members.Add(NewSignatoryID(), SupervisionPromoter, InternalPerson{PersonID: "promoter-1"})
	j := NewJury(d, g)
	f := &juryFixture{d: d, j: j, promoter: j.Members()[0].ID}
	var err error
	f.president, err = j.AddMember(d, student, JuryPresident, "president-1", nil, testNow)
	require.NoError(t, err)
	f.secretary, err = j.AddMember(d, student, JurySecretary, "secretary-1", nil, testNow)
	require.NoError(t, err)
	f.external, err = j.AddMember(d, student, JuryMember, "", externalPerson("ext@uni.org"), testNow)
	require.NoError(t, err)
	return f
}

func (f *juryFixture) approveAll(t *testing.T) {
	t.Helper()
	_, err := f.j.Submit(f.d, student, testNow)
	require.NoError(t, err)
	for _, m := range f.j.Members() {
		_, err := f.j.ApproveMember(f.d, cddManager, m.ID, "", "", testNow)
		require.NoError(t, err)
	}
	require.Equal(t, StatusJuryApprovedCA, f.d.Status())
}

func TestJury_PromoterIsProtected(t *testing.T) {
	f := readyJury(t)

	err := f.j.ModifyMember(f.d, student, f.promoter, "someone", nil, testNow)
	assert.True(t, dterrors.HasCode(err, ErrPromoterModified.Code))

	err = f.j.RemoveMember(f.d, student, f.promoter, testNow)
	assert.True(t, dterrors.HasCode(err, ErrPromoterRemoved.Code))

	err = f.j.ModifyMemberRole(f.d, student, f.promoter, JuryPresident, testNow)
	assert.True(t, dterrors.HasCode(err, ErrPromoterPresident.Code))

	assert.True(t, f.j.IsPromoter(f.promoter))
	assert.Len(t, f.j.Members(), 4)
}

func TestJury_SingletonRoles(t *testing.T) {
	f := readyJury(t)

	_, err := f.j.AddMember(f.d, student, JuryPresident, "president-2", nil, testNow)
	assert.True(t, dterrors.HasCode(err, ErrTooManyRoles.Code))

	require.NoError(t, f.j.ModifyMemberRole(f.d, student, f.external, JuryPresident, testNow))
	president, ok := f.j.President()
	require.True(t, ok)
	assert.Equal(t, f.external, president.ID)
	previous, _ := f.j.Member(f.president)
	assert.Equal(t, JuryMember, previous.Role)
}

func TestJury_AddMemberChecksExternal(t *testing.T) {
	f := readyJury(t)

	_, err := f.j.AddMember(f.d, student, JuryMember, "", &ExternalPerson{Email: "x@y.org"}, testNow)

	codes := dterrors.BusinessCodes(err)
	for _, want := range []*dterrors.BusinessError{
		ErrNonDoctorWithoutJustified, ErrExternalWithoutInstitution, ErrExternalWithoutCountry,
		ErrExternalWithoutLastName, ErrExternalWithoutFirstName, ErrExternalWithoutTitle,
		ErrExternalWithoutGender, ErrExternalWithoutLanguage,
	} {
		assert.Contains(t, codes, want.Code)
	}
	assert.NotContains(t, codes, ErrExternalWithoutEmail.Code)

	_, err = f.j.AddMember(f.d, student, JuryMember, "president-1", nil, testNow)
	assert.True(t, dterrors.HasCode(err, ErrAlreadyInJury.Code))
}

func TestJury_SubmitChecks(t *testing.T) {
	d := inStatus(t, StatusConfirmationSucceeded)
	j := NewJury(d, nil)

	_, err := j.Submit(d, student, testNow)

	assert.ElementsMatch(t, []string{
		ErrDefenseMethodIncomplete.Code,
		ErrJuryNotEnoughMembers.Code,
		ErrJuryNoExternalMember.Code,
		ErrRolesNotAssigned.Code,
	}, dterrors.BusinessCodes(err))
	assert.Equal(t, StatusConfirmationSucceeded, d.Status())
}

func TestJury_SubmitAndApprove(t *testing.T) {
	f := readyJury(t)

	invited, err := f.j.Submit(f.d, student, testNow)
	require.NoError(t, err)
	assert.Len(t, invited, 4)
	assert.Equal(t, StatusJurySubmitted, f.d.Status())

	_, err = f.j.AddMember(f.d, student, JuryMember, "late", nil, testNow)
	assert.Error(t, err)

	for _, m := range f.j.Members() {
		_, err := f.j.ApproveMember(f.d, cddManager, m.ID, "", "", testNow)
		require.NoError(t, err)
	}
	assert.Equal(t, StatusJuryApprovedCA, f.d.Status())
}

func TestJury_DeclineReturnsToEdition(t *testing.T) {
	f := readyJury(t)
	_, err := f.j.Submit(f.d, student, testNow)
	require.NoError(t, err)

	require.NoError(t, f.j.DeclineMember(f.d, member(f.d, "secretary-1", RoleJurySecretary), f.secretary, "conflict of interest", "", "", testNow))

	assert.Equal(t, StatusConfirmationSucceeded, f.d.Status())
	assert.Equal(t, SigningInProgress, f.j.SigningStatus())
}

func TestJury_RejectByCDD(t *testing.T) {
	f := readyJury(t)
	f.approveAll(t)
	f.d.ClearDomainEvents()

	err := f.j.RejectByCDD(f.d, cddManager, "", "", "", testNow)
	assert.True(t, dterrors.HasCode(err, ErrJuryRefusalReasonUnspecified.Code))
	assert.Equal(t, StatusJuryApprovedCA, f.d.Status())
	assert.Empty(t, f.d.DomainEvents())

	require.NoError(t, f.j.RejectByCDD(f.d, cddManager, "Not compliant", "", "", testNow))
	assert.Equal(t, StatusJuryRejectedCDD, f.d.Status())
	assert.Equal(t, []string{PhaseJury, TagStatusChanged}, lastActionEvent(t, f.d).Tags)
	for _, m := range f.j.Members() {
		assert.Equal(t, SignatureNotInvited, m.Signature.State)
	}
	cdd := f.j.members.WithRole(JuryCDD)
	require.Len(t, cdd, 1)
	assert.Equal(t, SignatureDeclined, cdd[0].Signature.State)
	assert.Equal(t, "Not compliant", cdd[0].Signature.RefusalReason)

	_, err = f.j.Submit(f.d, student, testNow)
	require.NoError(t, err)
	assert.Empty(t, f.j.members.WithRole(JuryCDD))
}

func TestJury_ApproveByADREOpensAdmissibility(t *testing.T) {
	f := readyJury(t)
	f.approveAll(t)
	require.NoError(t, f.j.ApproveByCDD(f.d, cddManager, "", testNow))

	a, err := f.j.ApproveByADRE(f.d, adre, "", testNow)

	require.NoError(t, err)
	assert.Equal(t, StatusJuryApprovedADRE, f.d.Status())
	assert.Equal(t, a.ID, f.d.CurrentAdmissibilityID())
	assert.True(t, a.Active)
}

func TestJury_SnapshotRoundTrip(t *testing.T) {
	f := readyJury(t)

	restored := RestoreJury(f.j.Snapshot())

	assert.Equal(t, f.j.Signatories(), restored.Signatories())
	assert.True(t, restored.IsPromoter(f.promoter))
	assert.Equal(t, []Membership{{DoctorateID: f.d.ID(), Role: RoleJuryPresident}}, restored.MembershipsOf("president-1"))
}
