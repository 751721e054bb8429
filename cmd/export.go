package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/export"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/style"
	"github.com/cardsweep/cardsweep/util"
	"github.com/cardsweep/cardsweep/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", string(export.FormatCSV), "Export format")
	lo.Must0(exportCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return export.Formats(), cobra.ShellCompDirectiveNoFileComp
	}))

	exportCmd.Flags().StringP("output", "o", "", "Destination file (defaults to the output directory)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the scraped cards as CSV, YAML or a SQLite database",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, err := export.ParseFormat(lo.Must(cmd.Flags().GetString("format")))
		handleErr(err)

		doc, err := output.Read(filesystem.API(), where.Data())
		handleErr(err)

		path := lo.Must(cmd.Flags().GetString("output"))
		if path == "" {
			path = filepath.Join(where.Output(), "cards."+format.Extension())
		}

		handleErr(export.Write(filesystem.API(), format, doc, path))

		fmt.Printf(
			"%s exported %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			util.Quantify(len(doc.Cards), "card", "cards"),
			style.Fg(color.Yellow)(path),
		)
	},
}
