package doctorate

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		action string
		body   string
		want   Command
	}{
		{
			name:   "reject jury with reason",
			action: "reject_jury_cdd",
			body:   `{"reason": "Missing external member"}`,
			want:   RejectJuryByCDD{Target: On("d-1"), Reason: "Missing external member"},
		},
		{
			name:   "empty body",
			action: "submit_jury",
			want:   SubmitJury{Target: On("d-1")},
		},
		{
			name:   "approval role comes from the action",
			action: "approve_authorization_by_promoter",
			body:   `{"Role": "SCEB", "InternalComment": "ok"}`,
			want:   ApproveAuthorization{Target: On("d-1"), Role: domain.AuthorizationPromoter, InternalComment: "ok"},
		},
		{
			name:   "refusal by SCEB",
			action: "refuse_authorization_by_sceb",
			body:   `{"Reason": "Embargo too long"}`,
			want:   RefuseAuthorization{Target: On("d-1"), Role: domain.AuthorizationSCEB, Reason: "Embargo too long"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Decode(tt.action, "d-1", []byte(tt.body))

			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
			assert.Equal(t, tt.action, cmd.Name())
			assert.Equal(t, domain.DoctorateID("d-1"), cmd.Doctorate())
		})
	}
}

func TestDecode_TargetIsNotTakenFromBody(t *testing.T) {
	cmd, err := Decode("abandon", "d-1", []byte(`{"DoctorateID": "d-2"}`))

	require.NoError(t, err)
	assert.Equal(t, domain.DoctorateID("d-1"), cmd.Doctorate())
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("no_such_action", "d-1", nil)
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))

	_, err = Decode(string(domain.ActionSupervisionApproved), "d-1", nil)
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound), "workflow-only actions cannot be requested")

	_, err = Decode("modify_project", "d-1", []byte(`{"Project": `))
	assert.True(t, dterrors.IsKind(err, dterrors.KindValidation))
}

func TestCommandNames(t *testing.T) {
	names := CommandNames()

	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, string(domain.ActionConfirmSuccess))
	assert.Contains(t, names, string(domain.ActionApproveAuthorizationBySCEB))
	assert.NotContains(t, names, string(domain.ActionJuryApprovedByMembers))
	for _, name := range names {
		cmd, err := Decode(name, "d-1", nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
