package cmd

import (
	"fmt"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/open"
	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolP("image", "i", false, "Open the card image instead of its page")
}

var openCmd = &cobra.Command{
	Use:   "open [card-id]",
	Short: "Open a harvested card in the default browser, or the output directory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			handleErr(open.Start(where.Output()))
			return
		}

		doc, err := output.Read(filesystem.API(), where.Data())
		handleErr(err)

		c, ok := lo.Find(doc.Cards, func(c card.Card) bool { return c.ID == args[0] })
		if !ok {
			handleErr(fmt.Errorf("card %s is not in %s", args[0], where.Data()))
		}

		target := c.URL
		if lo.Must(cmd.Flags().GetBool("image")) {
			target = c.BestImage()
		}

		fmt.Printf("%s opening %s\n", icon.Get(icon.Card), target)
		handleErr(open.Start(target))
	},
}
