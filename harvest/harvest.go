// Package harvest drives a run over a range of list pages: navigate, wait, extract every card, persist, repeat.
//
// Pages are processed strictly one after another on a single browser page.
// A page is retried with linear backoff; pages that exhaust their attempts are
// recorded as failed, and too many of those in a row abort the run.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cardsweep/cardsweep/browser"
	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/extract"
	"github.com/cardsweep/cardsweep/log"
	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/progress"
	"github.com/cardsweep/cardsweep/ready"
	"github.com/cardsweep/cardsweep/stats"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Status is how a run ended.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusAborted     Status = "aborted"
	StatusInterrupted Status = "interrupted"
	StatusFailed      Status = "failed"
)

// RunResult summarizes a finished run.
type RunResult struct {
	Status         Status
	PagesCompleted int
	PagesFailed    int
	PagesSkipped   int
	CardsExtracted int
	FailedPages    []int

	// UnrecoveredCards lists detail URLs that never produced a valid card.
	UnrecoveredCards []string

	Statistics stats.Statistics
	Err        error
}

// Event reports extraction progress within a page.
type Event struct {
	Page  int
	Index int
	Total int
	URL   string
}

// Deps are the collaborators of a Harvester.
type Deps struct {
	Engine       browser.Engine
	Fs           afero.Fs
	Clock        clock.Clock
	DataPath     string
	ProgressPath string

	// Logger defaults to log.Entry().
	Logger logrus.FieldLogger

	// OnCard, when set, is called before each card is extracted.
	OnCard func(Event)
}

// Harvester owns all mutable state of a run. It is not safe for concurrent Runs.
type Harvester struct {
	deps Deps
	opts Options

	logger    logrus.FieldLogger
	tracker   *stats.Tracker
	detector  *ready.Detector
	extractor *extract.Extractor
	progress  *progress.Store
	output    *output.Store
	page      browser.Page

	failedCards []failedCard

	// pending holds pages completed in batch mode whose cards are not on disk yet.
	pending []int
	saved   int
}

type failedCard struct {
	page int
	miss card.Miss
}

// New returns a Harvester.
func New(deps Deps, opts Options) *Harvester {
	opts.defaults()
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Entry()
	}

	return &Harvester{
		deps:      deps,
		opts:      opts,
		logger:    deps.Logger,
		extractor: extract.New(opts.Extract, deps.Clock),
	}
}

// Summarize returns the statistics of the current or last run.
func (h *Harvester) Summarize() stats.Statistics {
	if h.tracker == nil {
		return stats.Statistics{}
	}
	return h.tracker.Snapshot()
}

// Run harvests pages start through end inclusive. With resume, pages completed by an
// earlier run are skipped when their stored cards still validate.
//
// The returned error is the same as RunResult.Err.
func (h *Harvester) Run(ctx context.Context, start, end int, resume bool) (*RunResult, error) {
	if start < 1 || end < start {
		return nil, fmt.Errorf("invalid page range %d-%d", start, end)
	}

	session := progress.NewSessionID()
	h.tracker = stats.NewTracker(h.deps.Clock, session)
	h.detector = ready.NewDetector(h.deps.Clock, h.opts.PollInterval, h.tracker)
	h.failedCards = nil
	h.pending = nil

	result := &RunResult{Status: StatusCompleted}
	fail := func(status Status, err error) (*RunResult, error) {
		result.Status, result.Err = status, err
		result.Statistics = h.tracker.Snapshot()
		return result, err
	}

	var err error
	if h.output, err = output.Load(h.deps.Fs, h.deps.DataPath, h.opts.SiteURL, h.deps.Clock); err != nil {
		return fail(StatusFailed, &PersistenceError{Artifact: "output", Err: err})
	}
	if h.progress, err = progress.Load(h.deps.Fs, h.deps.ProgressPath, h.deps.Clock); err != nil {
		return fail(StatusFailed, &PersistenceError{Artifact: "progress", Err: err})
	}
	h.saved = h.output.Total()
	h.output.SetPretty(h.opts.Pretty)
	h.progress.SetPretty(h.opts.Pretty)
	h.progress.StartSession(session)

	resume = resume && h.opts.EnableResume
	h.logger.WithFields(logrus.Fields{
		"session": session,
		"start":   start,
		"end":     end,
		"resume":  resume,
	}).Info("run started")

	if h.page, err = h.deps.Engine.Open(ctx); err != nil {
		return fail(StatusFailed, fmt.Errorf("open page: %w", err))
	}

	runErr := h.loop(ctx, start, end, resume, result)

	if runErr == nil {
		var recovered int
		recovered, runErr = h.recover(ctx)
		result.CardsExtracted += recovered
	}

	result.UnrecoveredCards = lo.Map(h.failedCards, func(f failedCard, _ int) string { return f.miss.URL })

	if err := h.flush(); err != nil && runErr == nil {
		runErr = err
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		result.Status = StatusInterrupted
	case errors.Is(runErr, ErrTooManyFailures):
		result.Status = StatusAborted
	default:
		result.Status = StatusFailed
	}

	result.Err = runErr
	result.Statistics = h.tracker.Snapshot()

	h.logger.WithFields(logrus.Fields{
		"status":    result.Status,
		"completed": result.PagesCompleted,
		"failed":    result.PagesFailed,
		"skipped":   result.PagesSkipped,
		"cards":     result.CardsExtracted,
	}).Info("run finished")

	return result, runErr
}

// loop walks the page range. It returns nil when every page was handled.
func (h *Harvester) loop(ctx context.Context, start, end int, resume bool, result *RunResult) error {
	for p := start; p <= end; p++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger := h.logger.WithField("page", p)

		if resume && h.progress.Status(p) == card.StatusCompleted {
			if h.output.ValidCount(p) > 0 {
				logger.Debug("skipping completed page")
				h.tracker.PageSkipped()
				result.PagesSkipped++
				continue
			}
			logger.Warn("completed page has no valid stored cards, fetching again")
		}

		page, attempts, err := h.harvestPage(ctx, p)
		switch {
		case err == nil:
			if err := h.complete(page); err != nil {
				return err
			}
			result.PagesCompleted++
			result.CardsExtracted += page.ValidCount()

		case isFatal(ctx, err):
			return err

		default:
			logger.WithError(err).Errorf("page failed after %d attempts", attempts)
			consecutive := h.tracker.PageFailed()
			h.progress.MarkFailed(p, attempts)
			if err := h.saveProgress(); err != nil {
				return err
			}
			result.PagesFailed++
			result.FailedPages = append(result.FailedPages, p)

			if consecutive >= h.opts.FailureCeiling {
				logger.Errorf("%d consecutive pages failed, aborting", consecutive)
				return fmt.Errorf("%w: %d in a row", ErrTooManyFailures, consecutive)
			}
		}

		if p < end {
			if err := h.deps.Clock.Sleep(ctx, h.opts.PageDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

// isFatal reports errors that end the run instead of failing a page.
func isFatal(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	var perr *PersistenceError
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, browser.ErrSessionLost) ||
		errors.As(err, &perr)
}

// harvestPage retries a page until it completes or attempts run out.
func (h *Harvester) harvestPage(ctx context.Context, p int) (*card.PageResult, int, error) {
	var lastErr error

	for attempt := 1; attempt <= h.opts.MaxAttempts; attempt++ {
		h.tracker.PageAttempted()
		started := h.deps.Clock.Now()

		page, err := h.attempt(ctx, p, attempt)
		if err == nil {
			page.Attempts = attempt
			page.Elapsed = h.deps.Clock.Now().Sub(started)
			return page, attempt, nil
		}
		if isFatal(ctx, err) {
			return nil, attempt, err
		}

		lastErr = err
		h.tracker.AttemptFailed(p)
		h.logger.WithFields(logrus.Fields{"page": p, "attempt": attempt}).WithError(err).Warn("page attempt failed")

		if attempt < h.opts.MaxAttempts {
			if err := h.deps.Clock.Sleep(ctx, h.opts.RetryDelay*time.Duration(attempt)); err != nil {
				return nil, attempt, err
			}
		}
	}

	return nil, h.opts.MaxAttempts, lastErr
}

// attempt makes one pass over list page p.
func (h *Harvester) attempt(ctx context.Context, p, attempt int) (*card.PageResult, error) {
	logger := h.logger.WithFields(logrus.Fields{"page": p, "attempt": attempt})
	listURL := h.listURL(p)

	if err := h.page.Navigate(ctx, listURL); err != nil {
		return nil, &NavigationError{Page: p, URL: listURL, Err: err}
	}

	res := h.detector.Wait(ctx, h.page, ready.CardsPresent(h.opts.CardSelectors, h.opts.MinCards), h.opts.PageTimeout)
	if !res.Ready {
		return nil, res.Err
	}

	html, err := h.page.HTML(ctx)
	if err != nil {
		return nil, &NavigationError{Page: p, URL: listURL, Err: err}
	}

	links := h.cardLinks(html)
	logger.Infof("found %d cards", len(links))
	if len(links) == 0 {
		return nil, errNoCards
	}

	result := &card.PageResult{Page: p, Status: card.StatusNotStarted}
	for i, link := range links {
		if h.deps.OnCard != nil {
			h.deps.OnCard(Event{Page: p, Index: i + 1, Total: len(links), URL: link})
		}

		c, err := h.extractCard(ctx, link, p)
		if isFatal(ctx, err) {
			return nil, err
		}

		switch {
		case err != nil:
			logger.WithField("card", link).WithError(err).Warn("card failed")
			result.Failed = append(result.Failed, card.Miss{URL: link, Slot: len(result.Cards)})
			h.tracker.CardFailed()
		case !c.Valid():
			logger.WithField("card", link).Warn("card is incomplete")
			result.Failed = append(result.Failed, card.Miss{URL: link, Slot: len(result.Cards), Placeholder: true})
			result.Cards = append(result.Cards, c)
			h.tracker.CardFailed()
		default:
			result.Cards = append(result.Cards, c)
		}

		if i < len(links)-1 {
			if err := h.deps.Clock.Sleep(ctx, h.opts.ItemDelay); err != nil {
				return nil, err
			}
		}
	}

	if len(result.Failed)*100 > len(links)*h.opts.MaxItemFailurePercent {
		return nil, &ItemFailureError{Page: p, Failed: len(result.Failed), Total: len(links)}
	}
	if !result.Completed() {
		return nil, errNoCards
	}

	result.Status = card.StatusCompleted
	return result, nil
}

// extractCard loads one detail page. A readiness timeout is logged and extraction still attempted.
//
// The whole load, navigation included, runs inside the page budget; the tighter item
// budget applies to the readiness wait unless the page budget runs out first.
func (h *Harvester) extractCard(ctx context.Context, link string, p int) (card.Card, error) {
	if h.opts.PageTimeout > 0 {
		ctx = ready.WithDeadline(ctx, h.deps.Clock.Now().Add(h.opts.PageTimeout))
	}

	if err := h.page.Navigate(ctx, link); err != nil {
		return card.Card{}, err
	}

	res := h.detector.Wait(ctx, h.page, ready.DetailPresent(), h.opts.ItemTimeout)
	if !res.Ready {
		if isFatal(ctx, res.Err) {
			return card.Card{}, res.Err
		}
		h.logger.WithFields(logrus.Fields{"page": p, "card": link}).Debugf("card not ready after %s, extracting anyway", res.Elapsed)
	}

	html, err := h.page.HTML(ctx)
	if err != nil {
		return card.Card{}, err
	}

	return h.extractor.Extract(html, link, p)
}

// complete stores a finished page: document first, then progress.
// In batch mode the page stays pending until flush writes the document.
func (h *Harvester) complete(page *card.PageResult) error {
	h.output.Put(page.Page, page.Cards)
	h.tracker.PageCompleted()
	h.tracker.CardsExtracted(page.ValidCount())

	for _, m := range page.Failed {
		h.failedCards = append(h.failedCards, failedCard{page: page.Page, miss: m})
	}

	if !h.opts.LiveSave {
		h.pending = append(h.pending, page.Page)
		return nil
	}

	if err := h.saveOutput(); err != nil {
		return err
	}
	h.progress.MarkCompleted(page.Page)
	return h.saveProgress()
}

// recover retries failed cards once when there are only a few of them.
// Recovered cards take the slot their link had on the page. It returns how many
// were recovered, and stops early on errors that end the run.
func (h *Harvester) recover(ctx context.Context) (int, error) {
	h.failedCards = lo.UniqBy(h.failedCards, func(f failedCard) string { return f.miss.URL })
	if len(h.failedCards) == 0 || len(h.failedCards) > h.opts.FailedCardsLimit {
		return 0, nil
	}

	h.logger.Infof("retrying %d failed cards", len(h.failedCards))

	var (
		remaining []failedCard
		recovered int
		inserted  = make(map[int]int)
	)
	for i, f := range h.failedCards {
		stop := func(err error) (int, error) {
			h.failedCards = append(remaining, h.failedCards[i:]...)
			return recovered, err
		}

		if i > 0 {
			if err := h.deps.Clock.Sleep(ctx, h.opts.ItemDelay); err != nil {
				return stop(err)
			}
		}

		c, err := h.extractCard(ctx, f.miss.URL, f.page)
		if isFatal(ctx, err) {
			return stop(err)
		}
		if err != nil || !c.Valid() {
			remaining = append(remaining, f)
			continue
		}

		stored := h.output.Cards(f.page)
		slot := min(f.miss.Slot+inserted[f.page], len(stored))
		if f.miss.Placeholder && slot < len(stored) && !stored[slot].Valid() {
			stored[slot] = c
		} else {
			stored = slices.Insert(stored, slot, c)
			inserted[f.page]++
		}
		h.output.Put(f.page, stored)

		h.tracker.CardsExtracted(1)
		recovered++
		h.logger.WithFields(logrus.Fields{"page": f.page, "card": f.miss.URL}).Info("recovered card")
	}

	h.failedCards = remaining
	return recovered, nil
}

// flush writes the document, then records pending pages as completed. It runs on every exit path.
func (h *Harvester) flush() error {
	if err := h.saveOutput(); err != nil {
		return err
	}
	for _, p := range h.pending {
		h.progress.MarkCompleted(p)
	}
	h.pending = nil
	return h.saveProgress()
}

func (h *Harvester) saveOutput() error {
	if err := h.output.Save(h.tracker.Snapshot()); err != nil {
		return &PersistenceError{Artifact: "output", Err: err}
	}
	h.saved = h.output.Total()
	return nil
}

func (h *Harvester) saveProgress() error {
	h.progress.SetTotalCards(h.saved)
	if err := h.progress.Save(); err != nil {
		return &PersistenceError{Artifact: "progress", Err: err}
	}
	return nil
}

// listURL appends the page number to the configured list URL.
func (h *Harvester) listURL(p int) string {
	sep := "?"
	if strings.Contains(h.opts.BaseURL, "?") {
		sep = "&"
	}
	return h.opts.BaseURL + sep + "page=" + strconv.Itoa(p)
}

// cardLinks resolves card hrefs against the site URL, dropping duplicates in first-seen order.
func (h *Harvester) cardLinks(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(h.opts.SiteURL)

	var links []string
	for _, sel := range h.opts.CardSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href := strings.TrimSpace(s.AttrOr("href", ""))
			if href == "" {
				return
			}
			if ref, err := url.Parse(href); err == nil && base != nil {
				href = base.ResolveReference(ref).String()
			}
			links = append(links, href)
		})
	}

	return lo.Uniq(links)
}
