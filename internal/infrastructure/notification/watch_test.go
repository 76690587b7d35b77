package notification

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrack/doctrack/internal/application/doctorate"
)

func proclaimedOverride(subject string) []byte {
	return []byte("templates:\n  " + doctorate.TemplateProclaimed + ":\n    en:\n      subject: \"" + subject + "\"\n      body: \"b\"\n")
}

// watch starts WatchOverride and returns the channel reload outcomes are
// sent to. The watcher stops with the test.
func watch(t *testing.T, c *Catalog, path string) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan error, 32)
	done := make(chan error, 1)
	go func() {
		done <- c.WatchOverride(ctx, path, func(err error) {
			select {
			case reloads <- err:
			default:
			}
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return reloads
}

func TestCatalog_WatchOverride_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, proclaimedOverride("first"), 0o600))
	c, err := NewCatalog(WithOverrideFile(path))
	require.NoError(t, err)

	watch(t, c, path)

	// Writes are repeated until the watcher, started asynchronously, sees one.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, proclaimedOverride("second"), 0o600)
		got, err := c.Resolve(doctorate.TemplateProclaimed, "", "en")
		return err == nil && got.Subject == "second"
	}, 10*time.Second, 500*time.Millisecond)
}

func TestCatalog_WatchOverride_KeepsTemplatesOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, proclaimedOverride("kept"), 0o600))
	c, err := NewCatalog(WithOverrideFile(path))
	require.NoError(t, err)

	reloads := watch(t, c, path)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("templates: ["), 0o600)
		select {
		case err := <-reloads:
			return err != nil
		default:
			return false
		}
	}, 10*time.Second, 500*time.Millisecond)

	got, err := c.Resolve(doctorate.TemplateProclaimed, "", "en")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Subject)
}

func TestCatalog_WatchOverride_MissingDirectory(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	err = c.WatchOverride(context.Background(), filepath.Join(t.TempDir(), "nope", "catalog.yaml"), nil)

	assert.Error(t, err)
}
