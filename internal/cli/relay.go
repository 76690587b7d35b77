package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
)

var relayFailed bool

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Deliver pending outbox messages once",
	Long: `Run one outbox relay pass: deliver every pending email, in-app
notification, history entry and task, then exit.

Messages that exhausted their retries are flagged as failed and kept.
Use --failed to list them.`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().BoolVar(&relayFailed, "failed", false, "List failed messages instead of delivering")
}

func runRelay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	c, err := openContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if relayFailed {
		failed, err := c.Outbox().Failed(ctx)
		if err != nil {
			return fmt.Errorf("failed to list failed messages: %w", err)
		}
		if outputJSON {
			return printJSONOutput(out, failed)
		}
		if len(failed) == 0 {
			printSuccess(out, "No failed messages")
			return nil
		}
		printTitle(out, fmt.Sprintf("%d failed message(s)", len(failed)))
		fmt.Fprintln(out, renderMessages(failed))
		return nil
	}

	report, err := c.Relay().RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("relay pass failed: %w", err)
	}
	if outputJSON {
		return printJSONOutput(out, report)
	}

	printSuccess(out, fmt.Sprintf("Delivered %d message(s)", report.Delivered))
	if report.Failed > 0 {
		printError(out, fmt.Sprintf("%d message(s) failed, see 'doctrack relay --failed'", report.Failed))
	}
	if report.Deferred > 0 {
		printWarning(out, fmt.Sprintf("%d message(s) deferred while a notifier is unavailable", report.Deferred))
	}
	return nil
}

// renderMessages lays out messages as aligned columns.
func renderMessages(msgs []ports.OutboxMessage) string {
	cell := lipgloss.NewStyle().PaddingRight(2)
	header := cell.Bold(true)

	cols := [][]string{{"DOCTORATE"}, {"SEQ"}, {"KIND"}, {"ATTEMPTS"}, {"ERROR"}}
	for _, m := range msgs {
		cols[0] = append(cols[0], m.AggregateID)
		cols[1] = append(cols[1], fmt.Sprint(m.Seq))
		cols[2] = append(cols[2], string(m.Kind))
		cols[3] = append(cols[3], fmt.Sprint(m.Attempts))
		cols[4] = append(cols[4], m.LastError)
	}

	rendered := make([]string, len(cols))
	for i, col := range cols {
		lines := make([]string, len(col))
		for j, v := range col {
			if j == 0 {
				lines[j] = header.Render(v)
			} else {
				lines[j] = cell.Render(v)
			}
		}
		rendered[i] = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, rendered...), " ")
}
