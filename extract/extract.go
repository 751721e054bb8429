// Package extract turns a rendered card detail page into a card record.
//
// Declarative head metadata is read first and wins. The visible body only fills
// fields the metadata leaves empty, and only up to the first related-cards
// boundary. Disagreements are kept in the card's metadata bag.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// Field length caps, in runes.
const (
	MaxName        = 100
	MaxDescription = 500
	MaxCreator     = 50
)

const (
	defaultName   = "Unknown Card"
	defaultSeries = "Unknown Series"
	placeholder   = "Card preview"
	genericIntro  = "Here you can preview"
)

var (
	idPattern        = regexp.MustCompile(`(?i)/cards/info/([a-f0-9]+)`)
	fromPattern      = regexp.MustCompile(`from\s+([^\n\\]+?)(?:\n|\\n|Creators:|$)`)
	creatorsTail     = regexp.MustCompile(`\s*Creators:.*`)
	makerTail        = regexp.MustCompile(`\s*-\s*Card Maker:.*`)
	entityPattern    = regexp.MustCompile(`&[^;\s]+;`)
	escapedTail      = regexp.MustCompile(`\\n.*`)
	imageTierPattern = regexp.MustCompile(`(?i)/cards/([0-9S])/`)
	labelTierPattern = regexp.MustCompile(`(?i)\btier\s*:?\s*([0-9S])\b`)
	titleTierPattern = regexp.MustCompile(`(?i)tier[:\s]*([0-9S]+)`)
	whitespace       = regexp.MustCompile(`\s+`)

	creatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Creators:\s*-\s*Card Maker:\s*([^\n\\]+)`),
		regexp.MustCompile(`(?i)Card Maker:\s*([^\n\\]+)`),
		regexp.MustCompile(`(?i)Creator:\s*([^\n\\]+)`),
	}
)

// Options tunes extraction.
type Options struct {
	BoundarySelectors []string
	PreferHighRes     bool
	SkipInvalid       bool
	IncludeMetadata   bool

	// APIBase builds the fallback image URL when a page declares no image.
	APIBase string
}

// OptionsFromConfig reads extraction options from the configuration.
func OptionsFromConfig() Options {
	return Options{
		BoundarySelectors: viper.GetStringSlice(key.ExtractBoundarySelectors),
		PreferHighRes:     viper.GetBool(key.ExtractPreferHighRes),
		SkipInvalid:       viper.GetBool(key.ExtractSkipInvalid),
		IncludeMetadata:   viper.GetBool(key.OutputIncludeMetadata),
		APIBase:           viper.GetString(key.SiteAPIBase),
	}
}

// Extractor is stateless apart from its options; Extract may be called for any number of pages.
type Extractor struct {
	opts  Options
	clock clock.Clock
}

// New returns an Extractor. Boundary selectors that do not compile are dropped.
func New(opts Options, c clock.Clock) *Extractor {
	opts.BoundarySelectors = ValidSelectors(opts.BoundarySelectors)
	return &Extractor{opts: opts, clock: c}
}

// Extract parses the document served at pageURL, a detail page reached from list page pageNum.
//
// An invalid card is returned with Incomplete set, or dropped with an
// ExtractionError when SkipInvalid is on.
func (e *Extractor) Extract(document, pageURL string, pageNum int) (card.Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return card.Card{}, &ExtractionError{URL: pageURL, Reason: "unparsable document: " + err.Error()}
	}

	bag := metaBag(doc)
	audit := make(map[string]string)

	body := doc.Find("body")
	if boundary := truncate(body, e.opts.BoundarySelectors); boundary != "" {
		bag["boundary"] = boundary
	}
	v := visibleSignals(body)

	c := card.Card{
		Page:        pageNum,
		ExtractedAt: e.clock.Now().UTC().Format(time.RFC3339Nano),
	}

	c.ID, c.URL = identify(bag, pageURL, audit)

	c.Name = pick(audit, "name", e.name(bag), v.name, defaultName, MaxName)

	series := pick(audit, "series", seriesFrom(bag[metaDescription]), v.series, defaultSeries, MaxName)
	c.Series, c.CharacterSource = series, series

	creator := pick(audit, "creator", creatorFrom(bag[metaDescription]), v.creator, "", MaxCreator)
	c.Creator, c.CardMaker = creator, creator

	c.Description = pick(audit, "description", description(bag), v.description, "", MaxDescription)

	declared := lo.Compact([]string{bag[ogImage], bag[twitterImageName], bag[twitterImageProperty]})
	c.ImageURL = lo.FirstOr(declared, v.image)
	if c.ImageURL == "" && c.ID != "" && e.opts.APIBase != "" {
		c.ImageURL = fmt.Sprintf("%s/cardr/%s?size=700", strings.TrimSuffix(e.opts.APIBase, "/"), c.ID)
	}
	if len(declared) > 0 && e.opts.PreferHighRes {
		c.HighResImageURL = mo.Some(declared[0])
	}
	if len(declared) > 0 && v.image != "" && !sameURL(declared[0], v.image) {
		audit["conflict_image_url"] = v.image
	}

	c.Tier = tier(c.ImageURL, v.tier, bag, audit)

	if updated := lo.FirstOrEmpty(lo.Compact([]string{bag[ogUpdated], bag[modified]})); updated != "" {
		c.LastUpdated = mo.Some(updated)
	}

	if e.opts.IncludeMetadata {
		c.Metadata = lo.Assign(bag, audit)
	} else if len(audit) > 0 {
		c.Metadata = audit
	}

	if !c.Valid() {
		reason := "missing card id"
		if c.ID != "" {
			reason = "missing canonical url"
		}
		if e.opts.SkipInvalid {
			return card.Card{}, &ExtractionError{URL: pageURL, Reason: reason}
		}
		c.Incomplete = true
	}

	return c, nil
}

// name prefers the declarative title, then the document title.
func (e *Extractor) name(bag map[string]string) string {
	if t := clean(bag[ogTitle]); t != "" && t != placeholder {
		return t
	}
	if t := bag[pageTitle]; strings.Contains(t, "|") {
		if n := clean(strings.Split(t, "|")[0]); n != "" && n != placeholder {
			return n
		}
	}
	return ""
}

// identify resolves the card id and canonical URL from the same source.
func identify(bag map[string]string, pageURL string, audit map[string]string) (id, canonical string) {
	navigatedID := cardID(pageURL)

	for _, candidate := range []string{bag[linkCanonical], bag[ogURL]} {
		if candidate == "" {
			continue
		}
		resolved := resolve(pageURL, candidate)
		if cid := cardID(resolved); cid != "" {
			if navigatedID != "" && !strings.EqualFold(navigatedID, cid) {
				audit["conflict_card_id"] = navigatedID
			}
			return cid, resolved
		}
	}

	if navigatedID != "" {
		return navigatedID, pageURL
	}
	return "", ""
}

func cardID(u string) string {
	if m := idPattern.FindStringSubmatch(u); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func sameURL(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

// pick applies the metadata-first rule: declared wins, visible fills gaps,
// and a differing visible value is audited.
func pick(audit map[string]string, field, declared, visible, fallback string, limit int) string {
	declared, visible = clean(declared), clean(visible)

	switch {
	case declared != "":
		if visible != "" && !strings.EqualFold(declared, visible) {
			audit["conflict_"+field] = util.Truncate(visible, limit)
		}
		return util.Truncate(declared, limit)
	case visible != "":
		return util.Truncate(visible, limit)
	default:
		return fallback
	}
}

func seriesFrom(desc string) string {
	m := fromPattern.FindStringSubmatch(desc)
	if m == nil {
		return ""
	}
	s := strings.TrimSpace(m[1])
	s = creatorsTail.ReplaceAllString(s, "")
	s = makerTail.ReplaceAllString(s, "")
	return s
}

func creatorFrom(desc string) string {
	for _, p := range creatorPatterns {
		if m := p.FindStringSubmatch(desc); m != nil {
			c := strings.TrimSpace(m[1])
			c = entityPattern.ReplaceAllString(c, "")
			c = escapedTail.ReplaceAllString(c, "")
			return c
		}
	}
	return ""
}

func description(bag map[string]string) string {
	if d := bag[metaDescription]; d != "" && !strings.Contains(d, genericIntro) {
		return d
	}
	if d := bag[ogDescription]; d != "" && !strings.Contains(d, genericIntro) {
		return d
	}
	return ""
}

// tier resolves the image path hint against the breadcrumb label. The label wins a disagreement.
func tier(image, label string, bag map[string]string, audit map[string]string) string {
	var hint string
	if m := imageTierPattern.FindStringSubmatch(image); m != nil {
		if t, ok := card.NormalizeTier(m[1]); ok {
			hint = t
		}
	}
	if t, ok := card.NormalizeTier(label); ok {
		label = t
	} else {
		label = ""
	}

	switch {
	case hint != "" && label != "" && hint != label:
		audit["tier_conflict"] = fmt.Sprintf("image=%s breadcrumb=%s", hint, label)
		return label
	case label != "":
		return label
	case hint != "":
		return hint
	}

	for _, text := range []string{bag[ogTitle], bag[pageTitle]} {
		if m := titleTierPattern.FindStringSubmatch(text); m != nil {
			if t, ok := card.NormalizeTier(m[1]); ok {
				return t
			}
		}
	}
	return card.UnknownTier
}

// clean collapses whitespace and escaped newlines.
func clean(s string) string {
	s = strings.ReplaceAll(s, `\n`, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
