package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dwhetl",
	Short: "Redshift star-schema loader",
	Long: `dwhetl builds and loads a star schema of song-play events in Amazon Redshift.

It drops and recreates the staging and analytics tables, bulk-loads the raw
JSON event and song data from S3 into staging with COPY, then populates the
fact and dimension tables with INSERT ... SELECT. Statements run one at a
time, in a fixed order, on a single session. The first failure stops the run.

Configuration is read from dwh.cfg ([S3], [IAM_ROLE], [GEO], [CLUSTER]),
overridable with environment variables (S3_LOG_DATA, IAM_ROLE_ARN, ...)
and --set SECTION.KEY=VALUE.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Missing or malformed configuration
  11 - Warehouse connection failed
  12 - User denied dropping the tables
  13 - Schema statement (DROP/CREATE) failed
  14 - Load from S3 (COPY) failed
  15 - Transform (INSERT ... SELECT) failed
  16 - Statement or run timeout expired`,
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
	rootCmd.PersistentFlags().Bool("help", false, "Help for dwhetl")
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
