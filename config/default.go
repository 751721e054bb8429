// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/cardsweep/cardsweep/color"
	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Cardsweep + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ScrapeStartPage, 1, "First catalog page to harvest")
	register(key.ScrapeEndPage, 2311, "Last catalog page to harvest (inclusive)")
	register(key.ScrapePageDelay, 100, "Minimum pause between list pages, in milliseconds.\nApplied on top of readiness waiting")
	register(key.ScrapeItemDelay, 100, "Minimum pause between card detail pages, in milliseconds")
	register(key.WaitPageTimeout, 30000, "Maximum time to wait for a list page to show its cards, in milliseconds")
	register(key.WaitItemTimeout, 15000, "Maximum time to wait for a card detail page to render, in milliseconds.\nMust not exceed wait.page_timeout_ms")
	register(key.WaitNavigationTimeout, 20000, "Maximum time for a single navigation, in milliseconds")
	register(key.WaitPollInterval, 100, "Interval between readiness checks, in milliseconds.\nValues below 50 are raised to 50")
	register(key.WaitMinCards, 1, "Number of card links a list page must show before it counts as ready")
	register(key.RetryMaxAttempts, 3, "Attempts per list page before it is recorded as failed")
	register(key.RetryDelay, 1000, "Backoff unit between page attempts, in milliseconds.\nThe n-th retry waits n times this value")
	register(key.RetryFailureCeiling, 5, "Consecutive failed pages after which the run aborts")
	register(key.RetryMaxItemFailurePercent, 50, "Share of failed cards (0-100) above which the whole page fails")
	register(key.RetryFailedCardsLimit, 10, "Failed cards are retried once at the end of the run when there are at most this many")
	register(key.OutputLiveSave, true, "Rewrite the output document after every completed page")
	register(key.OutputPretty, true, "Indent JSON output")
	register(key.OutputIncludeMetadata, true, "Keep the raw metadata bag on every card")
	register(key.OutputDir, "output", "Directory receiving data.json and process.json")
	register(key.ResumeEnable, true, "Allow --resume to skip pages completed by a previous run")
	register(key.ExtractPreferHighRes, true, "Record the declarative image as the high resolution image")
	register(key.ExtractSkipInvalid, false, "Drop cards without identifier or canonical URL instead of flagging them incomplete")
	register(key.ExtractBoundarySelectors, []string{
		".related-cards",
		".other-cards",
		".similar-cards",
		"#related",
		"[data-section='related']",
	}, "Selectors marking the start of a related/other cards section.\nNothing after the first match is read")
	register(key.SiteBaseURL, "https://shoob.gg/cards", "Catalog list page URL, the page number is appended as ?page=N")
	register(key.SiteURL, "https://shoob.gg", "Site root used to resolve relative card links")
	register(key.SiteAPIBase, "https://api.shoob.gg/site/api", "API root used for the fallback card image")
	register(key.SiteCardSelectors, []string{"a[href*='/cards/info/']"}, "Selectors of card links on a list page")
	register(key.BrowserEngine, "rod", "Page engine to use.\nAvailable options are: rod (headless chrome), http (no javascript)")
	register(key.BrowserHeadless, true, "Run chrome without a window")
	register(key.BrowserStealth, true, "Apply anti-detection patches to every page")
	register(key.BrowserRemoteURL, "", "DevTools websocket of an already running chrome.\nEmpty launches a local one")
	register(key.BrowserBlockResources, []string{"fonts", "media"}, "Resource types to block.\nAvailable options are: images, fonts, media, stylesheets")
	register(key.BrowserUserAgent, constant.UserAgent, "User-Agent presented by both engines")
	register(key.BrowserTLSFingerprint, true, "Use a Chrome TLS fingerprint for the http engine")
	register(key.LogsWrite, true, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, false, "Enable automatic version check")

	if len(Default) != key.DefinedFieldsCount {
		panic("config: registered field count does not match key.DefinedFieldsCount")
	}
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
