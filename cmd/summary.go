package cmd

import (
	"encoding/json"

	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/report"
	"github.com/cardsweep/cardsweep/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringP("find", "f", "", "Preview the cards whose names best match this query")
	summaryCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the scraped data",
	Long:  "Show the card total, completed pages, output file size and a few sample cards.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printSummary(cmd, lo.Must(cmd.Flags().GetString("find")), lo.Must(cmd.Flags().GetBool("json")))
	},
}

func printSummary(cmd *cobra.Command, query string, asJson bool) {
	s, err := report.Summarize(filesystem.API(), where.Data(), where.Progress(), query)
	handleErr(err)

	if asJson {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		handleErr(enc.Encode(s))
		return
	}

	s.Print(cmd.OutOrStdout())
}
