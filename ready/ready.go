// Package ready polls a navigated page until the content needed for extraction has rendered.
package ready

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardsweep/cardsweep/browser"
	"github.com/cardsweep/cardsweep/clock"
)

// MinInterval is the shortest pause allowed between two checks.
const MinInterval = 50 * time.Millisecond

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("readiness timeout")

// TimeoutError reports a condition that did not hold within its budget.
type TimeoutError struct {
	Condition string
	Elapsed   time.Duration
	Budget    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s not ready after %s (budget %s)", e.Condition, e.Elapsed, e.Budget)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Kind separates list page waits from card detail waits in the statistics.
type Kind string

const (
	KindPage Kind = "page"
	KindCard Kind = "card"
)

// Condition is a predicate over the current document.
type Condition struct {
	Name  string
	Kind  Kind
	Check func(ctx context.Context, page browser.Page) (bool, error)
}

// CardsPresent holds once the selectors match at least min elements in total.
func CardsPresent(selectors []string, min int) Condition {
	if min < 1 {
		min = 1
	}
	joined := strings.Join(selectors, ", ")

	return Condition{
		Name: "card links",
		Kind: KindPage,
		Check: func(ctx context.Context, page browser.Page) (bool, error) {
			n, err := page.Count(ctx, joined)
			return n >= min, err
		},
	}
}

// DetailSelector matches the declarative tags a rendered detail page carries.
const DetailSelector = `meta[property='og:title']:not([content='']):not([content='Card preview']), ` +
	`meta[property='og:image']:not([content=''])`

// DetailPresent holds once a detail page has filled in its declarative title or image.
func DetailPresent() Condition {
	return Condition{
		Name: "card detail",
		Kind: KindCard,
		Check: func(ctx context.Context, page browser.Page) (bool, error) {
			n, err := page.Count(ctx, DetailSelector)
			return n > 0, err
		},
	}
}

// Result is the outcome of one wait.
type Result struct {
	Ready   bool
	Elapsed time.Duration
	Budget  time.Duration

	// Reason is empty when ready, otherwise "timeout", "cancelled" or "session lost".
	Reason string
	Err    error
}

// Recorder receives the elapsed time and allotted budget of every finished wait.
type Recorder interface {
	RecordWait(kind Kind, elapsed, budget time.Duration)
}

// Detector runs conditions against a page.
type Detector struct {
	Clock    clock.Clock
	Interval time.Duration
	Recorder Recorder
}

// NewDetector returns a detector polling every interval, raised to MinInterval.
func NewDetector(c clock.Clock, interval time.Duration, rec Recorder) *Detector {
	return &Detector{Clock: c, Interval: max(interval, MinInterval), Recorder: rec}
}

type deadlineKey struct{}

// WithDeadline bounds every wait started under ctx by at. The earlier of this and a wait's own budget wins.
func WithDeadline(ctx context.Context, at time.Time) context.Context {
	if outer, ok := deadline(ctx); ok && outer.Before(at) {
		return ctx
	}
	return context.WithValue(ctx, deadlineKey{}, at)
}

func deadline(ctx context.Context) (time.Time, bool) {
	at, ok := ctx.Value(deadlineKey{}).(time.Time)
	return at, ok
}

// Wait polls cond until it holds, budget elapses, or ctx is done.
// Check errors other than a lost session count as not ready.
func (d *Detector) Wait(ctx context.Context, page browser.Page, cond Condition, budget time.Duration) Result {
	start := d.Clock.Now()
	end := start.Add(budget)
	if outer, ok := deadline(ctx); ok && outer.Before(end) {
		end = outer
	}
	effective := end.Sub(start)

	interval := max(d.Interval, MinInterval)

	result := func(ready bool, reason string, err error) Result {
		r := Result{
			Ready:   ready,
			Elapsed: d.Clock.Now().Sub(start),
			Budget:  effective,
			Reason:  reason,
			Err:     err,
		}
		if d.Recorder != nil && reason != "cancelled" {
			d.Recorder.RecordWait(cond.Kind, r.Elapsed, effective)
		}
		return r
	}

	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return result(false, "cancelled", err)
		}

		ok, err := cond.Check(ctx, page)
		switch {
		case errors.Is(err, browser.ErrSessionLost):
			return result(false, "session lost", err)
		case err != nil:
			if ctx.Err() != nil {
				return result(false, "cancelled", ctx.Err())
			}
			lastErr = err
		case ok:
			return result(true, "", nil)
		}

		now := d.Clock.Now()
		if !now.Before(end) {
			timeout := &TimeoutError{Condition: cond.Name, Elapsed: now.Sub(start), Budget: effective}
			if lastErr != nil {
				return result(false, "timeout", fmt.Errorf("%w: last check: %s", timeout, lastErr))
			}
			return result(false, "timeout", timeout)
		}

		if err := d.Clock.Sleep(ctx, min(interval, end.Sub(now))); err != nil {
			return result(false, "cancelled", err)
		}
	}
}
