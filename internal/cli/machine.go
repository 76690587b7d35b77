package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/fileutil"
)

var machineOut string

var machineCmd = &cobra.Command{
	Use:         "machine",
	Short:       "Inspect the doctorate status machine",
	Annotations: map[string]string{skipConfig: "true"},
}

var machineExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the status machine as XState JSON",
	Long: `Export every status and status-changing action as XState JSON, ready
for the Stately visualizer. Transitions only the workflow triggers carry
the "automatic" guard.`,
	Args: cobra.NoArgs,
	RunE: runMachineExport,
}

var machineReplayCmd = &cobra.Command{
	Use:   "replay <action>...",
	Short: "Walk the status machine through a sequence of actions",
	Long: `Start from ADMITTED and apply the given actions in order, printing the
statuses visited. Fails on the first action not allowed from the current
status.

Example:
  doctrack machine replay submit_confirmation confirm_success`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMachineReplay,
}

func init() {
	machineExportCmd.Flags().StringVarP(&machineOut, "output", "o", "", "write to file instead of stdout")
	machineCmd.AddCommand(machineExportCmd)
	machineCmd.AddCommand(machineReplayCmd)
}

func runMachineExport(cmd *cobra.Command, args []string) error {
	data, err := domain.ExportXStateJSON()
	if err != nil {
		return fmt.Errorf("failed to export machine: %w", err)
	}
	if machineOut == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := fileutil.AtomicWriteFile(machineOut, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", machineOut, err)
	}
	printSuccess(cmd.OutOrStdout(), "Machine written to "+machineOut)
	return nil
}

func runMachineReplay(cmd *cobra.Command, args []string) error {
	actions := make([]domain.Action, len(args))
	for i, a := range args {
		actions[i] = domain.Action(strings.ToLower(a))
	}

	path, err := domain.ReplayPath(actions...)
	out := cmd.OutOrStdout()
	if outputJSON {
		result := map[string]any{"path": path}
		if err != nil {
			result["error"] = err.Error()
		}
		if jerr := printJSONOutput(out, result); jerr != nil {
			return jerr
		}
		return err
	}

	for i, s := range path {
		if i == 0 {
			printInfo(out, string(s))
			continue
		}
		printSuccess(out, fmt.Sprintf("%s → %s", actions[i-1], s))
	}
	if err != nil {
		printError(out, err.Error())
		return err
	}
	return nil
}
