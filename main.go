// Package main is the entry point for cardsweep.
package main

import (
	"github.com/cardsweep/cardsweep/cmd"
	"github.com/cardsweep/cardsweep/config"
	"github.com/cardsweep/cardsweep/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
