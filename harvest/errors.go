package harvest

import (
	"errors"
	"fmt"
)

// ErrTooManyFailures aborts a run after too many consecutive pages failed.
var ErrTooManyFailures = errors.New("too many consecutive failed pages")

// errNoCards fails a page attempt that produced no valid card.
var errNoCards = errors.New("no valid cards")

// NavigationError reports a list page that could not be loaded.
type NavigationError struct {
	Page int
	URL  string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("page %d: navigate %s: %s", e.Page, e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ItemFailureError fails a page whose share of failed cards exceeded the threshold.
type ItemFailureError struct {
	Page   int
	Failed int
	Total  int
}

func (e *ItemFailureError) Error() string {
	return fmt.Sprintf("page %d: %d of %d cards failed", e.Page, e.Failed, e.Total)
}

// PersistenceError reports a failed write of the progress file or the output document.
type PersistenceError struct {
	Artifact string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s", e.Artifact, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
