package cmd

import (
	"os"

	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/report"
	"github.com/cardsweep/cardsweep/where"
	"github.com/spf13/cobra"
)

// githubOutputEnv names the file CI steps append their outputs to.
const githubOutputEnv = "GITHUB_OUTPUT"

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the output document and progress file exist and agree",
	Long: `Check that data.json and process.json exist, parse, and agree on the card count.
When GITHUB_OUTPUT is set, card_count and completed_pages are appended to it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fs := filesystem.API()
		v := report.Verify(fs, where.Output(), where.Data(), where.Progress())

		if v.OK() {
			if path, ok := os.LookupEnv(githubOutputEnv); ok && path != "" {
				handleErr(v.WriteOutputs(fs, path))
			}
		}

		v.Print(cmd.OutOrStdout())
		if !v.OK() {
			os.Exit(1)
		}
	},
}
