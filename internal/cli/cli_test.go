package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output. Global
// flag state is reset first since cobra keeps it between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, outputJSON, noColor, logLevel = "", false, true, "info"
	machineOut, migratePath, relayFailed = "", "", false
	cfg = nil
	t.Cleanup(Cleanup)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRootCommand_Silence(t *testing.T) {
	if !rootCmd.SilenceUsage {
		t.Error("rootCmd.SilenceUsage should be true")
	}
	if !rootCmd.SilenceErrors {
		t.Error("rootCmd.SilenceErrors should be true")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"machine", "migrate", "relay", "serve", "version"}
	var got []string
	for _, c := range rootCmd.Commands() {
		if c.Name() != "help" && c.Name() != "completion" {
			got = append(got, c.Name())
		}
	}
	assert.ElementsMatch(t, want, got)
}

func TestVersionCommand_JSON(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")

	out, err := execute(t, "version", "--json")

	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["Version"])
	assert.Equal(t, "abc123", info["Commit"])
}

func TestMachineReplay(t *testing.T) {
	out, err := execute(t, "machine", "replay", "submit_confirmation", "confirm_success")

	require.NoError(t, err)
	assert.Contains(t, out, "ADMITTED")
	assert.Contains(t, out, "CONFIRMATION_SUBMITTED")
	assert.Contains(t, out, "CONFIRMATION_SUCCEEDED")
}

func TestMachineReplay_NotAllowed(t *testing.T) {
	out, err := execute(t, "machine", "replay", "--json", "confirm_success")

	require.Error(t, err)
	var result struct {
		Path  []string `json:"path"`
		Error string   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"ADMITTED"}, result.Path)
	assert.Contains(t, result.Error, "confirm_success")
}

func TestMachineExport_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.json")

	_, err := execute(t, "machine", "export", "--output", path)

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var machine struct {
		Initial string                     `json:"initial"`
		States  map[string]json.RawMessage `json:"states"`
	}
	require.NoError(t, json.Unmarshal(data, &machine))
	assert.Equal(t, "ADMITTED", machine.Initial)
	assert.Contains(t, machine.States, "CONFIRMATION_SUBMITTED")
}

func TestRelay_NothingPending(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: memory\n")

	out, err := execute(t, "--config", path, "relay")

	require.NoError(t, err)
	assert.Contains(t, out, "Delivered 0 message(s)")
}

func TestRelay_FailedJSON(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: memory\n")

	out, err := execute(t, "--config", path, "--json", "relay", "--failed")

	require.NoError(t, err)
	assert.Contains(t, []string{"null", "[]"}, strings.TrimSpace(out))
}

func TestMigrate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "doctrack.db")
	path := writeConfig(t, "storage:\n  driver: sqlite\n  sqlite_path: "+db+"\n")

	out, err := execute(t, "--config", path, "migrate")

	require.NoError(t, err)
	assert.Contains(t, out, "is up to date")
	_, statErr := os.Stat(db)
	assert.NoError(t, statErr)
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: postgres\n")

	_, err := execute(t, "--config", path, "relay")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLogLevelFlagOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: error\n")

	_, err := execute(t, "--config", path, "--log-level", "debug", "migrate", "--path", filepath.Join(t.TempDir(), "x.db"))

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
}

func TestRenderMessages(t *testing.T) {
	out := renderMessages(nil)

	assert.Contains(t, out, "DOCTORATE")
	assert.Contains(t, out, "ERROR")
}
