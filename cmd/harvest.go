package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/cardsweep/cardsweep/browser"
	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/config"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/harvest"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/log"
	"github.com/cardsweep/cardsweep/report"
	"github.com/cardsweep/cardsweep/util"
	"github.com/cardsweep/cardsweep/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Exit codes of a harvest.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func exitCode(status harvest.Status) int {
	switch status {
	case harvest.StatusCompleted:
		return exitOK
	case harvest.StatusInterrupted:
		return exitInterrupted
	default:
		return exitFailure
	}
}

// runHarvest runs the configured page range and returns the process exit code.
func runHarvest(cmd *cobra.Command) int {
	handleErr(config.Validate())

	var (
		start  = viper.GetInt(key.ScrapeStartPage)
		end    = viper.GetInt(key.ScrapeEndPage)
		resume = lo.Must(cmd.Flags().GetBool("resume"))
		yes    = lo.Must(cmd.Flags().GetBool("yes"))
		engine = viper.GetString(key.BrowserEngine)
	)

	handleErr(report.Banner(os.Stdout, report.Plan{
		Start:    start,
		End:      end,
		Engine:   engine,
		Resume:   resume,
		LiveSave: viper.GetBool(key.OutputLiveSave),
	}))

	if !resume && !yes && !confirm("Start harvesting?") {
		fmt.Printf("%s Harvest cancelled\n", icon.Get(icon.Fail))
		return exitOK
	}

	if engine == browser.EngineRod {
		CheckDependencies()
	}

	eng, err := browser.New(engine, browser.OptionsFromConfig())
	handleErr(err)
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warnf("close browser: %s", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	width, _, err := util.TerminalSize()
	if err != nil {
		width = 0
	}
	line := report.NewProgress(os.Stderr, width)

	h := harvest.New(harvest.Deps{
		Engine:       eng,
		Fs:           filesystem.API(),
		Clock:        clock.Real{},
		DataPath:     where.Data(),
		ProgressPath: where.Progress(),
		OnCard:       line.Update,
	}, harvest.OptionsFromConfig())

	log.Infof("harvest pages %d-%d, engine %s, resume %t", start, end, engine, resume)
	res, err := h.Run(ctx, start, end, resume)
	line.Done()
	if res == nil {
		handleErr(err)
	}

	handleErr(report.Run(os.Stdout, res))
	log.Infof("harvest %s: %d pages, %d cards", res.Status, res.PagesCompleted, res.CardsExtracted)
	return exitCode(res.Status)
}

// confirm asks a yes/no question on an interactive terminal. Non-interactive runs proceed.
func confirm(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}

	var response bool
	handleErr(survey.AskOne(&survey.Confirm{Message: question, Default: false}, &response))
	return response
}
