// Package cmd implements the command-line interface for cardsweep.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cardsweep/cardsweep/browser"
	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/log"
	"github.com/cardsweep/cardsweep/style"
	"github.com/cardsweep/cardsweep/util"
	"github.com/cardsweep/cardsweep/version"
	"github.com/cardsweep/cardsweep/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Log at debug level and mirror the log to stderr")

	rootCmd.Flags().IntP("start", "s", 0, "First list page to harvest (defaults to scrape.start_page)")
	lo.Must0(viper.BindPFlag(key.ScrapeStartPage, rootCmd.Flags().Lookup("start")))

	rootCmd.Flags().IntP("end", "e", 0, "Last list page to harvest (defaults to scrape.end_page)")
	lo.Must0(viper.BindPFlag(key.ScrapeEndPage, rootCmd.Flags().Lookup("end")))

	rootCmd.Flags().BoolP("resume", "r", false, "Skip pages completed by an earlier run")
	rootCmd.Flags().Bool("summary", false, "Show a summary of the scraped data and exit")
	rootCmd.Flags().BoolP("yes", "y", false, "Start without asking for confirmation")

	rootCmd.Flags().String("engine", browser.EngineRod, "Page rendering engine")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("engine", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{browser.EngineRod, browser.EngineHTTP}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.BrowserEngine, rootCmd.Flags().Lookup("engine")))

	rootCmd.Flags().Bool("live-save", true, "Rewrite the output document after every completed page")
	lo.Must0(viper.BindPFlag(key.OutputLiveSave, rootCmd.Flags().Lookup("live-save")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd harvests the catalog when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   constant.Cardsweep,
	Short: "Harvest card records from a paginated catalog with a headless browser",
	Long: constant.Logo() + "\n\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Harvest card records from a paginated catalog with a headless browser"),
	Example: `  cardsweep --start 1 --end 10
  cardsweep --resume
  cardsweep --summary
  cardsweep export --format csv`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("verbose")) {
			log.SetVerbose()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if lo.Must(cmd.Flags().GetBool("summary")) {
			printSummary(cmd, "", false)
			return
		}

		if code := runHarvest(cmd); code != 0 {
			os.Exit(code)
		}
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
