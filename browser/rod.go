package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cardsweep/cardsweep/log"
	"github.com/cardsweep/cardsweep/util"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Rod drives a Chrome instance through the DevTools protocol.
type Rod struct {
	opts Options

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRod returns an engine that launches or attaches to Chrome on the first Open.
func NewRod(opts Options) *Rod {
	return &Rod{opts: opts}
}

func (r *Rod) connect() (*rod.Browser, error) {
	if r.browser != nil {
		return r.browser, nil
	}

	wsURL := r.opts.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(r.opts.Headless).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		r.launcher = l
		log.Infof("launched local chrome at %s", wsURL)
	} else {
		log.Infof("attaching to chrome at %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	r.browser = b
	return b, nil
}

// Open creates a tab with stealth patches, user agent and resource blocking applied.
func (r *Rod) Open(ctx context.Context) (Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if r.opts.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}

	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      r.opts.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			log.Warnf("set user agent: %s", err)
		}
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Warnf("set viewport: %s", err)
	}

	if len(r.opts.BlockResources) > 0 {
		blockResources(page, r.opts.BlockResources)
	}

	timeout := util.Millis(r.opts.NavigationTimeout)
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &rodPage{page: page, timeout: timeout}, nil
}

// Close shuts Chrome down. A launched process is killed, an attached one is only disconnected.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// blockResources fails requests for the configured resource types.
func blockResources(page *rod.Page, types []string) {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlock(blocked, string(h.Request.Type())) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
}

func shouldBlock(blocked map[string]bool, resourceType string) bool {
	switch t := strings.ToLower(resourceType); t {
	case "image":
		return blocked["images"]
	case "font":
		return blocked["fonts"]
	case "media":
		return blocked["media"]
	case "stylesheet":
		return blocked["stylesheets"]
	default:
		return blocked[t]
	}
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
	url     string
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	page := p.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return classify(err)
	}
	if err := page.WaitLoad(); err != nil {
		log.Debugf("load wait on %s: %s", url, err)
	}
	p.url = url
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", classify(err)
	}
	return html, nil
}

func (p *rodPage) Count(ctx context.Context, selector string) (int, error) {
	res, err := p.page.Context(ctx).Eval(`(s) => document.querySelectorAll(s).length`, selector)
	if err != nil {
		return 0, classify(err)
	}
	return res.Value.Int(), nil
}

func (p *rodPage) URL() string {
	return p.url
}

// sessionGone matches failures after which the tab or the browser cannot recover.
var sessionGone = []string{
	"Target closed",
	"No target with given id",
	"connection closed",
	"use of closed network connection",
	"websocket: close",
}

// classify maps a dead websocket or a crashed target onto ErrSessionLost.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) && cdpErr.Code == -32000 && strings.Contains(cdpErr.Message, "Target closed") {
		return fmt.Errorf("%w: %s", ErrSessionLost, err)
	}

	msg := err.Error()
	for _, s := range sessionGone {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %s", ErrSessionLost, err)
		}
	}
	return err
}
