package harvest

import (
	"time"

	"github.com/cardsweep/cardsweep/extract"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/util"
	"github.com/spf13/viper"
)

// Options configures a Harvester.
type Options struct {
	// BaseURL is the list page URL; the page number is appended as a query parameter.
	BaseURL string

	// SiteURL resolves relative card links.
	SiteURL string

	CardSelectors []string
	MinCards      int

	PageDelay    time.Duration
	ItemDelay    time.Duration
	PageTimeout  time.Duration
	ItemTimeout  time.Duration
	PollInterval time.Duration

	MaxAttempts           int
	RetryDelay            time.Duration
	FailureCeiling        int
	MaxItemFailurePercent int
	FailedCardsLimit      int

	LiveSave     bool
	EnableResume bool
	Pretty       bool

	Extract extract.Options
}

// OptionsFromConfig reads harvest options from the configuration.
func OptionsFromConfig() Options {
	return Options{
		BaseURL:               viper.GetString(key.SiteBaseURL),
		SiteURL:               viper.GetString(key.SiteURL),
		CardSelectors:         viper.GetStringSlice(key.SiteCardSelectors),
		MinCards:              viper.GetInt(key.WaitMinCards),
		PageDelay:             util.Millis(viper.GetInt(key.ScrapePageDelay)),
		ItemDelay:             util.Millis(viper.GetInt(key.ScrapeItemDelay)),
		PageTimeout:           util.Millis(viper.GetInt(key.WaitPageTimeout)),
		ItemTimeout:           util.Millis(viper.GetInt(key.WaitItemTimeout)),
		PollInterval:          util.Millis(viper.GetInt(key.WaitPollInterval)),
		MaxAttempts:           viper.GetInt(key.RetryMaxAttempts),
		RetryDelay:            util.Millis(viper.GetInt(key.RetryDelay)),
		FailureCeiling:        viper.GetInt(key.RetryFailureCeiling),
		MaxItemFailurePercent: viper.GetInt(key.RetryMaxItemFailurePercent),
		FailedCardsLimit:      viper.GetInt(key.RetryFailedCardsLimit),
		LiveSave:              viper.GetBool(key.OutputLiveSave),
		EnableResume:          viper.GetBool(key.ResumeEnable),
		Pretty:                viper.GetBool(key.OutputPretty),
		Extract:               extract.OptionsFromConfig(),
	}
}

func (o *Options) defaults() {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.FailureCeiling < 1 {
		o.FailureCeiling = 1
	}
	if o.MinCards < 1 {
		o.MinCards = 1
	}
	if o.ItemTimeout <= 0 || (o.PageTimeout > 0 && o.ItemTimeout > o.PageTimeout) {
		o.ItemTimeout = o.PageTimeout
	}
	if len(o.CardSelectors) == 0 {
		o.CardSelectors = []string{"a[href*='/cards/info/']"}
	}
	o.MaxItemFailurePercent = min(max(o.MaxItemFailurePercent, 0), 100)
}
