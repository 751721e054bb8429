// Package stats accumulates counters and wait timings for a harvest session.
package stats

import (
	"sync"
	"time"

	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/ready"
	"github.com/cardsweep/cardsweep/util"
	"github.com/samber/lo"
)

// WaitAnalytics summarizes time spent in readiness waits, in seconds and percent.
type WaitAnalytics struct {
	TotalWaitTime     float64 `json:"total_wait_time"`
	AveragePageLoad   float64 `json:"average_page_load"`
	AverageCardLoad   float64 `json:"average_card_load"`
	WaitEfficiency    float64 `json:"wait_efficiency"`
	BudgetUtilization float64 `json:"budget_utilization"`
}

// Statistics is the reportable snapshot of a session.
type Statistics struct {
	SessionID           string        `json:"session_id"`
	PagesScraped        int           `json:"pages_scraped"`
	PagesSkipped        int           `json:"pages_skipped"`
	PagesFailed         int           `json:"pages_failed"`
	CardsExtracted      int           `json:"cards_extracted"`
	TotalErrors         int           `json:"total_errors"`
	SuccessRate         float64       `json:"success_rate"`
	ElapsedTime         float64       `json:"elapsed_time"`
	CardsPerSecond      float64       `json:"cards_per_second"`
	PagesPerMinute      float64       `json:"pages_per_minute"`
	AverageCardsPerPage float64       `json:"average_cards_per_page"`
	WaitTimeAnalytics   WaitAnalytics `json:"wait_time_analytics"`

	PagesAttempted      int         `json:"-"`
	FailedAttempts      map[int]int `json:"-"`
	ConsecutiveFailures int         `json:"-"`
}

// Tracker is owned by a single harvester. The mutex only guards snapshots taken from other goroutines.
type Tracker struct {
	mu    sync.Mutex
	clock clock.Clock
	start time.Time
	id    string

	pagesScraped   int
	pagesSkipped   int
	pagesFailed    int
	pagesAttempted int
	cardsExtracted int
	errors         int
	consecutive    int
	failedAttempts map[int]int

	pageWaits []time.Duration
	cardWaits []time.Duration
	budget    time.Duration
}

// NewTracker starts a session clocked by c.
func NewTracker(c clock.Clock, sessionID string) *Tracker {
	return &Tracker{
		clock:          c,
		start:          c.Now(),
		id:             sessionID,
		failedAttempts: make(map[int]int),
	}
}

// RecordWait implements ready.Recorder.
func (t *Tracker) RecordWait(kind ready.Kind, elapsed, budget time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case ready.KindPage:
		t.pageWaits = append(t.pageWaits, elapsed)
	case ready.KindCard:
		t.cardWaits = append(t.cardWaits, elapsed)
	}
	t.budget += budget
}

// PageAttempted counts a navigation attempt on a list page.
func (t *Tracker) PageAttempted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pagesAttempted++
}

// AttemptFailed counts a failed attempt of page.
func (t *Tracker) AttemptFailed(page int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failedAttempts[page]++
	t.errors++
}

// PageCompleted counts a completed page and ends any run of failed pages.
func (t *Tracker) PageCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pagesScraped++
	t.consecutive = 0
}

// PageFailed counts a page that exhausted its attempts and returns how many failed in a row.
func (t *Tracker) PageFailed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pagesFailed++
	t.consecutive++
	return t.consecutive
}

// PageSkipped counts a page reused from a previous run.
func (t *Tracker) PageSkipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pagesSkipped++
}

// CardsExtracted adds n extracted cards.
func (t *Tracker) CardsExtracted(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cardsExtracted += n
}

// CardFailed counts a card that yielded no usable record.
func (t *Tracker) CardFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors++
}

// FailedAttempts returns the failed attempt count of page.
func (t *Tracker) FailedAttempts(page int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failedAttempts[page]
}

// Snapshot derives rates and wait analytics as of now.
func (t *Tracker) Snapshot() Statistics {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := t.clock.Now().Sub(t.start)
	secs := elapsed.Seconds()

	s := Statistics{
		SessionID:      t.id,
		PagesScraped:   t.pagesScraped,
		PagesSkipped:   t.pagesSkipped,
		PagesFailed:    t.pagesFailed,
		CardsExtracted: t.cardsExtracted,
		TotalErrors:    t.errors,
		ElapsedTime:    util.Round(secs, 2),
		PagesAttempted:      t.pagesAttempted,
		FailedAttempts:      lo.Assign(t.failedAttempts),
		ConsecutiveFailures: t.consecutive,
	}

	if ops := t.pagesScraped + t.errors; ops > 0 {
		s.SuccessRate = util.Round(float64(t.pagesScraped)/float64(ops)*100, 2)
	}
	if secs > 0 {
		s.CardsPerSecond = util.Round(float64(t.cardsExtracted)/secs, 2)
		s.PagesPerMinute = util.Round(float64(t.pagesScraped)/secs*60, 2)
	}
	s.AverageCardsPerPage = util.Round(float64(t.cardsExtracted)/float64(max(t.pagesScraped, 1)), 1)

	s.WaitTimeAnalytics = t.analytics(secs)
	return s
}

func (t *Tracker) analytics(elapsed float64) WaitAnalytics {
	avg := func(ds []time.Duration) float64 {
		if len(ds) == 0 {
			return 0
		}
		return lo.Sum(ds).Seconds() / float64(len(ds))
	}

	total := lo.Sum(t.pageWaits) + lo.Sum(t.cardWaits)
	w := WaitAnalytics{
		TotalWaitTime:   util.Round(total.Seconds(), 2),
		AveragePageLoad: util.Round(avg(t.pageWaits), 2),
		AverageCardLoad: util.Round(avg(t.cardWaits), 2),
	}
	if elapsed > 0 {
		w.WaitEfficiency = util.Round((elapsed-total.Seconds())/elapsed*100, 1)
	}
	if t.budget > 0 {
		w.BudgetUtilization = util.Round(float64(total)/float64(t.budget)*100, 1)
	}
	return w
}
