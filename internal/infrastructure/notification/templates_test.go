package notification

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrack/doctrack/internal/application/doctorate"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

func TestCatalog_ProvidesEveryNotification(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	names := []string{
		doctorate.TemplateSupervisionInvitation,
		doctorate.TemplateConfirmationSubmitted,
		doctorate.TemplateJurySubmitted,
		doctorate.TemplateJuryInvitation,
		doctorate.TemplateJuryRejected,
		doctorate.TemplatePrivateDefenseSubmitted,
		doctorate.TemplatePrivateDefenseInvite,
		doctorate.TemplatePrivateDefenseSuccess,
		doctorate.TemplatePublicDefenseAuthorised,
		doctorate.TemplateProclaimed,
		doctorate.TemplateAuthorizationToSign,
		doctorate.TemplateAuthorizationRefused,
		doctorate.TemplateAuthorizationValidated,
	}
	assert.ElementsMatch(t, names, c.Names())

	for _, name := range names {
		for _, lang := range []string{"en", "fr-BE"} {
			tmpl, err := c.Resolve(name, "", lang)
			require.NoError(t, err, "%s/%s", name, lang)
			assert.NotEmpty(t, tmpl.Subject, "%s/%s", name, lang)
			assert.NotEmpty(t, tmpl.Body, "%s/%s", name, lang)
		}
	}
}

func TestCatalog_LanguageFallback(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	en, err := c.Resolve(doctorate.TemplateProclaimed, "", "en")
	require.NoError(t, err)
	fr, err := c.Resolve(doctorate.TemplateProclaimed, "", "fr-BE")
	require.NoError(t, err)
	assert.NotEqual(t, en.Subject, fr.Subject)

	tests := []struct {
		name string
		lang string
		want string
	}{
		{"region variant matches", "fr", fr.Subject},
		{"case and separator insensitive", "fr_be", fr.Subject},
		{"unknown language uses default", "de", en.Subject},
		{"empty language uses default", "", en.Subject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Resolve(doctorate.TemplateProclaimed, "", tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Subject)
		})
	}
}

func TestCatalog_EntityOverride(t *testing.T) {
	override := `
entities:
  CDA:
    proclaimed:
      en:
        subject: "CDA proclamation {{.reference}}"
        body: "Well done."
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	c, err := NewCatalog(WithOverrideFile(path))
	require.NoError(t, err)

	got, err := c.Resolve(doctorate.TemplateProclaimed, "CDA", "en")
	require.NoError(t, err)
	assert.Equal(t, "CDA proclamation {{.reference}}", got.Subject)

	// The override only has English: French callers get the override too.
	got, err = c.Resolve(doctorate.TemplateProclaimed, "CDA", "fr-BE")
	require.NoError(t, err)
	assert.Equal(t, "CDA proclamation {{.reference}}", got.Subject)

	generic, err := c.Resolve(doctorate.TemplateProclaimed, "CDB", "en")
	require.NoError(t, err)
	assert.NotEqual(t, got.Subject, generic.Subject)
}

func TestCatalog_Errors(t *testing.T) {
	c, err := NewCatalog(WithDefaultLanguage("fr-BE"))
	require.NoError(t, err)

	_, err = c.Resolve("no-such-template", "", "en")
	assert.True(t, dterrors.IsKind(err, dterrors.KindNotFound))

	assert.True(t, dterrors.IsKind(c.Load([]byte("templates: [")), dterrors.KindConfig))

	_, err = NewCatalog(WithOverrideFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.True(t, dterrors.IsKind(err, dterrors.KindConfig))
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(0)

	got, err := r.Render(context.Background(), ports.Template{
		Subject: "  Doctorate {{.reference}}\n",
		Body:    "Hello {{title .name}}, {{default \"no reason\" .reason}}. {{.missing}}",
	}, map[string]string{"reference": "D-1", "name": "ada lovelace"})

	require.NoError(t, err)
	assert.Equal(t, "Doctorate D-1", got.Subject)
	assert.Equal(t, "Hello Ada Lovelace, no reason. ", got.Body)
}

func TestRenderer_InvalidTemplate(t *testing.T) {
	r := NewRenderer(0)

	_, err := r.Render(context.Background(), ports.Template{Subject: "{{.broken"}, nil)
	assert.True(t, dterrors.IsKind(err, dterrors.KindValidation))
}

func TestRenderer_CatalogTemplates(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)
	tmpl, err := c.Resolve(doctorate.TemplatePublicDefenseAuthorised, "", "en")
	require.NoError(t, err)

	got, err := NewRenderer(0).Render(context.Background(), tmpl, map[string]string{
		"reference":            "D-7",
		"student_first_name":   "Ada",
		"student_last_name":    "Lovelace",
		"recipient_first_name": "Charles",
		"defense_at":           "2023-06-01 14:00",
		"place":                "Aula Magna",
		"language":             "fr",
	})
	require.NoError(t, err)

	assert.Equal(t, "Public defense of Ada Lovelace", got.Subject)
	assert.Contains(t, got.Body, "Dear Charles")
	assert.Contains(t, got.Body, "on 2023-06-01 14:00 at Aula Magna (FR)")
}
