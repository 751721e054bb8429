// Package clock abstracts time so polling and backoff can run against a fake in tests.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock reports the current time and suspends the caller.
// Sleep must return early with the context error when ctx is done.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fake is a manual clock. Sleep advances it instantly.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
	naps  int

	// OnSleep, when set, runs after every Sleep with the requested duration.
	OnSleep func(d time.Duration)
}

// NewFake returns a Fake starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	if d > 0 {
		f.now = f.now.Add(d)
		f.slept += d
	}
	f.naps++
	hook := f.OnSleep
	f.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

// Advance moves the clock forward without counting as a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Slept returns the total duration passed to Sleep.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slept
}

// Naps returns how many times Sleep was called.
func (f *Fake) Naps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.naps
}
