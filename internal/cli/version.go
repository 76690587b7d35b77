package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if outputJSON {
			return printJSONOutput(out, versionInfo)
		}
		fmt.Fprintf(out, "doctrack %s\n", versionInfo.Version)
		printSubtle(out, fmt.Sprintf("  commit: %s", versionInfo.Commit))
		printSubtle(out, fmt.Sprintf("  built:  %s", versionInfo.Date))
		return nil
	},
}
