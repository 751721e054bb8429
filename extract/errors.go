package extract

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every ExtractionError.
var ErrInvalid = errors.New("invalid card")

// ExtractionError reports a detail page that did not yield a valid card.
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrInvalid
}
