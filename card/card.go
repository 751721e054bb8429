// Package card holds the records produced by a harvest: cards and the per-page results that group them.
package card

import (
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Tier labels accepted by the catalog.
var Tiers = []string{"1", "2", "3", "4", "5", "6", "S"}

// UnknownTier is recorded when no signal yields a valid tier.
const UnknownTier = "Unknown"

// NormalizeTier upper-cases a tier label and reports whether it is a known tier.
func NormalizeTier(s string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(s))
	return t, lo.Contains(Tiers, t)
}

// Card is a single extracted catalog entry. It is not modified after extraction.
type Card struct {
	ID              string            `json:"card_id" yaml:"card_id" jsonschema:"description=Hex identifier taken from the canonical URL"`
	URL             string            `json:"card_url" yaml:"card_url" jsonschema:"description=Canonical detail page URL"`
	Page            int               `json:"page_num" yaml:"page_num"`
	Name            string            `json:"name" yaml:"name"`
	Tier            string            `json:"tier" yaml:"tier" jsonschema:"enum=1,enum=2,enum=3,enum=4,enum=5,enum=6,enum=S,enum=Unknown"`
	CharacterSource string            `json:"character_source" yaml:"character_source"`
	Series          string            `json:"series" yaml:"series"`
	ImageURL        string            `json:"image_url" yaml:"image_url"`
	HighResImageURL mo.Option[string] `json:"high_res_image_url" yaml:"-"`
	Creator         string            `json:"creator" yaml:"creator"`
	CardMaker       string            `json:"card_maker" yaml:"card_maker"`
	Description     string            `json:"description" yaml:"description"`
	LastUpdated     mo.Option[string] `json:"last_updated" yaml:"-"`
	ExtractedAt     string            `json:"extraction_timestamp" yaml:"extraction_timestamp"`
	Metadata        map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Incomplete      bool              `json:"incomplete" yaml:"incomplete"`
}

// Valid reports whether the card carries both an identifier and a canonical URL.
func (c *Card) Valid() bool {
	return c.ID != "" && c.URL != ""
}

// BestImage returns the high resolution image when known, the standard one otherwise.
func (c *Card) BestImage() string {
	return c.HighResImageURL.OrElse(c.ImageURL)
}

// Status is the completion state of a list page.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)
