// Package browser is the narrow page capability the harvester drives: navigate, read the DOM, count matches.
//
// Three engines implement it. Rod drives a headless Chrome, Static fetches pages
// over HTTP without running scripts, and Memory serves scripted documents for tests.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardsweep/cardsweep/key"
	"github.com/spf13/viper"
)

// ErrSessionLost is returned once the underlying browser session can no longer serve pages.
var ErrSessionLost = errors.New("browser session lost")

// Page is a single tab reused for the whole run.
type Page interface {
	// Navigate loads url and returns once the document has been committed.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current serialized document.
	HTML(ctx context.Context) (string, error)

	// Count returns how many elements match a CSS selector in the current document.
	Count(ctx context.Context, selector string) (int, error)

	// URL returns the address of the current document.
	URL() string
}

// Engine opens pages and owns their session.
type Engine interface {
	Open(ctx context.Context) (Page, error)
	Close() error
}

// Options configures the real engines.
type Options struct {
	Headless          bool
	Stealth           bool
	RemoteURL         string
	BlockResources    []string
	UserAgent         string
	TLSFingerprint    bool
	NavigationTimeout int
}

// OptionsFromConfig reads browser options from the configuration.
func OptionsFromConfig() Options {
	return Options{
		Headless:          viper.GetBool(key.BrowserHeadless),
		Stealth:           viper.GetBool(key.BrowserStealth),
		RemoteURL:         viper.GetString(key.BrowserRemoteURL),
		BlockResources:    viper.GetStringSlice(key.BrowserBlockResources),
		UserAgent:         viper.GetString(key.BrowserUserAgent),
		TLSFingerprint:    viper.GetBool(key.BrowserTLSFingerprint),
		NavigationTimeout: viper.GetInt(key.WaitNavigationTimeout),
	}
}

// Available engine names.
const (
	EngineRod  = "rod"
	EngineHTTP = "http"
)

// New returns the engine registered under name.
func New(name string, opts Options) (Engine, error) {
	switch name {
	case EngineRod:
		return NewRod(opts), nil
	case EngineHTTP:
		return NewStatic(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", name)
	}
}
