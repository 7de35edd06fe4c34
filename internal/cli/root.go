package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `                _      _   _                 _
 ___ _ __  _ __(_)_ __ | |_| | ___   __ _  __| |
/ __| '_ \| '__| | '_ \| __| |/ _ \ / _` + "`" + ` |/ _` + "`" + ` |
\__ \ |_) | |  | | | | | |_| | (_) | (_| | (_| |
|___/ .__/|_|  |_|_| |_|\__|_|\___/ \__,_|\__,_|
    |_|`

var rootCmd = &cobra.Command{
	Use:   "sprintload",
	Short: "HPO data sprint CSV loader",
	Long: asciiLogo + `

sprintload loads each participating site's data sprint CSV submissions into
PostgreSQL: it resets the sprint tables from the schema catalog, loads every
in-scope table row by row, records every phase in the pmi_sprint_reporter_log
table, and exports the merged log as a JSON report.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied table-reset approval
  13 - Namespace creation or table reset failed
  14 - Schema catalog contains an unrecognized data type
  15 - Log aggregation or export failed`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for sprintload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
