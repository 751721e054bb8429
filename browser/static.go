package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cardsweep/cardsweep/network"
	"github.com/cardsweep/cardsweep/util"
)

// maxBody caps how much of a response Static reads.
const maxBody = 8 << 20

// Static fetches documents over HTTP. Scripts are not executed, so it only
// sees what the server renders.
type Static struct {
	opts   Options
	client *http.Client
}

// NewStatic returns an HTTP engine. With TLSFingerprint set it presents a Chrome Client Hello.
func NewStatic(opts Options) *Static {
	timeout := util.Millis(opts.NavigationTimeout)
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := network.Client
	if opts.TLSFingerprint {
		client = network.NewFingerprintedClient(timeout)
	}

	return &Static{opts: opts, client: client}
}

// NewStaticWithClient returns an HTTP engine using client as is.
func NewStaticWithClient(opts Options, client *http.Client) *Static {
	return &Static{opts: opts, client: client}
}

func (s *Static) Open(context.Context) (Page, error) {
	return &staticPage{engine: s}, nil
}

func (s *Static) Close() error {
	return nil
}

type staticPage struct {
	engine *Static
	url    string
	html   string
	doc    *goquery.Document
}

func (p *staticPage) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	ua := p.engine.opts.UserAgent
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.engine.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	return p.load(resp.Request.URL.String(), string(body))
}

func (p *staticPage) load(url, html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	p.url, p.html, p.doc = url, html, doc
	return nil
}

func (p *staticPage) HTML(context.Context) (string, error) {
	return p.html, nil
}

func (p *staticPage) Count(_ context.Context, selector string) (int, error) {
	if p.doc == nil {
		return 0, nil
	}
	return p.doc.Find(selector).Length(), nil
}

func (p *staticPage) URL() string {
	return p.url
}
