package card

import (
	"time"

	"github.com/samber/lo"
)

// PageResult is the ordered set of cards captured from one list page.
type PageResult struct {
	Page     int
	Cards    []Card
	Status   Status
	Elapsed  time.Duration
	Attempts int

	// Failed lists detail pages that produced no usable card, in link order.
	Failed []Miss
}

// Miss is a detail page that produced no usable card.
type Miss struct {
	URL string

	// Slot is where the card belongs in Cards.
	Slot int

	// Placeholder is set when an incomplete card already occupies Slot.
	Placeholder bool
}

// ValidCount returns how many cards pass validation.
func (p *PageResult) ValidCount() int {
	return lo.CountBy(p.Cards, func(c Card) bool { return c.Valid() })
}

// Completed reports whether the page may be recorded as completed.
func (p *PageResult) Completed() bool {
	return p.ValidCount() > 0
}
