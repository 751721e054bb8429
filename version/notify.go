package version

import (
	"fmt"

	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/style"
	"github.com/cardsweep/cardsweep/util"
	"github.com/spf13/viper"
)

// Notify prints an alert if a newer release than the running one is published.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/cardsweep/cardsweep/releases/tag/v"+version),
	)
}
