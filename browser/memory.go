package browser

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Response is one scripted answer of a Memory engine.
type Response struct {
	// HTML is the final document.
	HTML string

	// Err is returned by Navigate instead of loading HTML.
	Err error

	// Polls is how many Count calls see an empty document before HTML appears.
	Polls int
}

// Memory serves scripted documents keyed by URL.
// Each navigation to a URL consumes its next Response. The last one repeats.
type Memory struct {
	mu      sync.Mutex
	script  map[string][]Response
	visits  map[string]int
	history []string
	closed  bool
}

// NewMemory returns an empty scripted engine.
func NewMemory() *Memory {
	return &Memory{
		script: make(map[string][]Response),
		visits: make(map[string]int),
	}
}

// Serve appends responses for url.
func (m *Memory) Serve(url string, responses ...Response) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script[url] = append(m.script[url], responses...)
	return m
}

// Visits returns how many times url was navigated to.
func (m *Memory) Visits(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visits[url]
}

// History returns every navigated URL in order.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Memory) Open(context.Context) (Page, error) {
	return &memoryPage{engine: m}, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) next(url string) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Response{}, ErrSessionLost
	}

	n := m.visits[url]
	m.visits[url]++
	m.history = append(m.history, url)

	responses := m.script[url]
	if len(responses) == 0 {
		return Response{}, errors.New("404 not found: " + url)
	}
	if n >= len(responses) {
		n = len(responses) - 1
	}
	return responses[n], nil
}

type memoryPage struct {
	engine  *Memory
	url     string
	current Response
	doc     *goquery.Document
	polls   int
}

func (p *memoryPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := p.engine.next(url)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return resp.Err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.HTML))
	if err != nil {
		return err
	}

	p.url, p.current, p.doc, p.polls = url, resp, doc, 0
	return nil
}

func (p *memoryPage) rendered() bool {
	return p.polls >= p.current.Polls
}

func (p *memoryPage) HTML(context.Context) (string, error) {
	if p.engine.Closed() {
		return "", ErrSessionLost
	}
	if !p.rendered() {
		return "<html><head></head><body></body></html>", nil
	}
	return p.current.HTML, nil
}

func (p *memoryPage) Count(_ context.Context, selector string) (int, error) {
	if p.engine.Closed() {
		return 0, ErrSessionLost
	}
	if p.doc == nil {
		return 0, nil
	}
	if !p.rendered() {
		p.polls++
		return 0, nil
	}
	return p.doc.Find(selector).Length(), nil
}

func (p *memoryPage) URL() string {
	return p.url
}
