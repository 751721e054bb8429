package cmd

import (
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/report"
	"github.com/cardsweep/cardsweep/where"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(progressCmd)
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print the last completed page, 0 when there is none",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		page, err := report.LastPage(filesystem.API(), where.Progress())
		handleErr(err)
		cmd.Println(page)
	},
}
