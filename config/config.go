// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"errors"
	"strings"

	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.Cardsweep)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Cardsweep)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return Validate()
}

// Validate rejects configurations the harvester cannot run with.
func Validate() error {
	var errs []error

	start, end := viper.GetInt(key.ScrapeStartPage), viper.GetInt(key.ScrapeEndPage)
	if start < 1 {
		errs = append(errs, errors.New("scrape.start_page must be at least 1"))
	}
	if end < start {
		errs = append(errs, errors.New("scrape.start_page cannot be greater than scrape.end_page"))
	}
	if viper.GetInt(key.WaitPageTimeout) < 1000 {
		errs = append(errs, errors.New("wait.page_timeout_ms should be at least 1 second"))
	}
	if viper.GetInt(key.WaitItemTimeout) > viper.GetInt(key.WaitPageTimeout) {
		errs = append(errs, errors.New("wait.item_timeout_ms cannot exceed wait.page_timeout_ms"))
	}
	if viper.GetInt(key.RetryMaxAttempts) < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if viper.GetInt(key.RetryFailureCeiling) < 1 {
		errs = append(errs, errors.New("retry.failure_ceiling must be at least 1"))
	}
	if p := viper.GetInt(key.RetryMaxItemFailurePercent); p < 0 || p > 100 {
		errs = append(errs, errors.New("retry.max_item_failure_percent must be between 0 and 100"))
	}
	switch viper.GetString(key.BrowserEngine) {
	case "rod", "http":
	default:
		errs = append(errs, errors.New(`browser.engine must be "rod" or "http"`))
	}

	return errors.Join(errs...)
}
