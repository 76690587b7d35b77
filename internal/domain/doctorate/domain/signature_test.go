package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

func newTestGroup() (*SignatureGroup[SupervisionRole], []SignatoryID) {
	g := NewSignatureGroup[SupervisionRole](supervisionCodes)
	ids := []SignatoryID{"a", "b", "c"}
	g.Add(ids[0], SupervisionPromoter, InternalPerson{PersonID: "p-1"})
	g.Add(ids[1], SupervisionCAMember, InternalPerson{PersonID: "ca-1"})
	g.Add(ids[2], SupervisionCAMember, *externalPerson("ext@example.org"))
	return &g, ids
}

func TestSignatureGroup_InviteResetInvite(t *testing.T) {
	g, _ := newTestGroup()

	first := g.Invite(testNow)
	require.NoError(t, g.Approve(first[0], "ok", "", testNow))
	require.NoError(t, g.Decline(first[1], "no time", "", "", testNow))

	g.Reset()
	for _, s := range g.All() {
		assert.Equal(t, Signature{State: SignatureNotInvited}, s.Signature)
	}

	second := g.Invite(testNow)
	assert.Equal(t, first, second)
}

func TestSignatureGroup_ApproveTwiceFails(t *testing.T) {
	g, ids := newTestGroup()
	g.Invite(testNow)

	require.NoError(t, g.Approve(ids[0], "", "", testNow))
	err := g.Approve(ids[0], "", "", testNow)

	require.Error(t, err)
	assert.True(t, dterrors.HasCode(err, ErrSignatoryNotInvited.Code))
}

func TestSignatureGroup_Decline(t *testing.T) {
	tests := []struct {
		name     string
		invite   bool
		reason   string
		wantCode string
	}{
		{name: "blank reason", invite: true, reason: "   ", wantCode: ErrSupervisionRefusalReasonAbsent.Code},
		{name: "not invited", invite: false, reason: "busy", wantCode: ErrSignatoryNotInvited.Code},
		{name: "declined", invite: true, reason: "  busy "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ids := newTestGroup()
			if tt.invite {
				g.Invite(testNow)
			}
			err := g.Decline(ids[1], tt.reason, "internal", "external", testNow)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, dterrors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			s, _ := g.Find(ids[1])
			assert.Equal(t, SignatureDeclined, s.Signature.State)
			assert.Equal(t, "busy", s.Signature.RefusalReason)
		})
	}
}

func TestSignatureGroup_ApproveByPDF(t *testing.T) {
	g, ids := newTestGroup()
	g.Invite(testNow)

	require.NoError(t, g.ApproveByPDF(ids[2], []string{"pdf-1"}, testNow))

	s, err := g.Find(ids[2])
	require.NoError(t, err)
	assert.Equal(t, SignatureApproved, s.Signature.State)
	assert.Equal(t, []string{"pdf-1"}, s.Signature.PDF)
}

func TestSignatureGroup_AllInState(t *testing.T) {
	g, _ := newTestGroup()
	none := func(Signatory[SupervisionRole]) bool { return false }

	assert.False(t, g.AllInState(SignatureNotInvited, none), "an empty selection is never satisfied")
	assert.True(t, g.AllInState(SignatureNotInvited, func(Signatory[SupervisionRole]) bool { return true }))
}

func TestSameIdentity(t *testing.T) {
	tests := []struct {
		name string
		a, b Identity
		want bool
	}{
		{name: "same person", a: InternalPerson{PersonID: "x"}, b: InternalPerson{PersonID: "x"}, want: true},
		{name: "different person", a: InternalPerson{PersonID: "x"}, b: InternalPerson{PersonID: "y"}},
		{name: "same email any case", a: ExternalPerson{Email: "A@b.org"}, b: ExternalPerson{Email: "a@B.org"}, want: true},
		{name: "empty email", a: ExternalPerson{}, b: ExternalPerson{}},
		{name: "internal vs external", a: InternalPerson{PersonID: "x"}, b: ExternalPerson{Email: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameIdentity(tt.a, tt.b))
		})
	}
}
