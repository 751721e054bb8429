// Package report renders run banners, end-of-run statistics and checks over the output artifacts.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/harvest"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/stats"
	"github.com/cardsweep/cardsweep/style"
	"github.com/cardsweep/cardsweep/util"
)

// Plan describes the run about to start.
type Plan struct {
	Start    int
	End      int
	Engine   string
	Resume   bool
	LiveSave bool
}

var funcs = template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
	"green":   style.Fg(color.Green),
	"red":     style.Fg(color.Red),
	"yellow":  style.Fg(color.Yellow),
	"icon":    icon.Get,
	"join": func(pages []int) string {
		return strings.Trim(fmt.Sprint(pages), "[]")
	},
	"quantify": util.Quantify,
}

var bannerTemplate = template.Must(template.New("banner").Funcs(funcs).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }} {{ faint .Version }}

  {{ faint "Pages" }}        {{ bold (printf "%d-%d" .Plan.Start .Plan.End) }}
  {{ faint "Engine" }}       {{ bold .Plan.Engine }}
  {{ faint "Resume" }}       {{ bold (printf "%t" .Plan.Resume) }}
  {{ faint "Live save" }}    {{ bold (printf "%t" .Plan.LiveSave) }}

`))

// Banner prints the start-of-run banner.
func Banner(w io.Writer, plan Plan) error {
	return bannerTemplate.Execute(w, struct {
		App     string
		Version string
		Plan    Plan
	}{
		App:     constant.Cardsweep,
		Version: constant.Version,
		Plan:    plan,
	})
}

var runTemplate = template.Must(template.New("run").Funcs(funcs).Parse(`
{{ .Headline }}

{{ icon .StatsIcon }} {{ bold "Statistics" }}
  {{ faint "Pages scraped" }}      {{ .Stats.PagesScraped }}
  {{ faint "Pages skipped" }}      {{ .Stats.PagesSkipped }}
  {{ faint "Pages failed" }}       {{ .Stats.PagesFailed }}
  {{ faint "Cards extracted" }}    {{ .Stats.CardsExtracted }}
  {{ faint "Success rate" }}       {{ .Stats.SuccessRate }}%
  {{ faint "Total time" }}         {{ .Stats.ElapsedTime }}s
  {{ faint "Speed" }}              {{ .Stats.CardsPerSecond }} cards/sec
  {{ faint "Average" }}            {{ .Stats.AverageCardsPerPage }} cards/page
{{- if .Result.FailedPages }}
  {{ yellow "Failed pages" }}       {{ join .Result.FailedPages }}
{{- end }}
{{- if .Result.UnrecoveredCards }}
  {{ yellow "Failed cards" }}       {{ len .Result.UnrecoveredCards }}
{{- end }}

{{ icon .TimerIcon }} {{ bold "Wait time" }}
  {{ faint "Total wait time" }}    {{ .Stats.WaitTimeAnalytics.TotalWaitTime }}s
  {{ faint "Avg page load" }}      {{ .Stats.WaitTimeAnalytics.AveragePageLoad }}s
  {{ faint "Avg card load" }}      {{ .Stats.WaitTimeAnalytics.AverageCardLoad }}s
  {{ faint "Wait efficiency" }}    {{ .Stats.WaitTimeAnalytics.WaitEfficiency }}%
{{- if .Result.Err }}

{{ red (print .Result.Err) }}
{{- end }}
`))

// Run prints the end-of-run block for res.
func Run(w io.Writer, res *harvest.RunResult) error {
	return runTemplate.Execute(w, struct {
		Headline  string
		StatsIcon icon.Icon
		TimerIcon icon.Icon
		Stats     stats.Statistics
		Result    *harvest.RunResult
	}{
		Headline:  Headline(res),
		StatsIcon: icon.Stats,
		TimerIcon: icon.Timer,
		Stats:     res.Statistics,
		Result:    res,
	})
}

// Headline is the one-line verdict for res.
func Headline(res *harvest.RunResult) string {
	cards := util.Quantify(res.CardsExtracted, "card", "cards")
	pages := util.Quantify(res.PagesCompleted, "page", "pages")

	switch res.Status {
	case harvest.StatusCompleted:
		return fmt.Sprintf("%s %s %s from %s", icon.Get(icon.Success), style.Fg(color.Green)("Harvest completed:"), cards, pages)
	case harvest.StatusInterrupted:
		return fmt.Sprintf("%s %s %s and %s saved", icon.Get(icon.Warn), style.Fg(color.Yellow)("Interrupted:"), pages, cards)
	default:
		return fmt.Sprintf("%s %s %s and %s saved before stopping", icon.Get(icon.Fail), style.Fg(color.Red)(util.Capitalize(string(res.Status))+":"), pages, cards)
	}
}
