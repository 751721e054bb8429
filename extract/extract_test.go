package extract

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/clock"
	. "github.com/smartystreets/goconvey/convey"
)

const cardURL = "https://shoob.gg/cards/info/5f2a"

const susuwatari = `<html><head>
<title>Susuwatari | Shoob</title>
<meta property="og:title" content="Susuwatari">
<meta name="description" content="Susuwatari from Spirited Away Creators: - Card Maker: Kiki">
<meta property="og:image" content="https://cdn.shoob.gg/images/cards/3/5f2a.png">
<meta property="og:updated_time" content="2024-05-01T10:00:00Z">
<link rel="canonical" href="https://shoob.gg/cards/info/5f2a">
</head><body>
<nav class="breadcrumb"><a>Home</a><a>Cards</a><a>Tier 5</a><a>Spirited Away</a><a>Susuwatari</a></nav>
<h1>Susuwatari</h1>
<div class="related-cards">
  <h1 class="card-name">Decoy</h1>
  <div class="card-maker">Card Maker: Mallory</div>
  <img src="https://cdn.shoob.gg/images/cards/1/decoy.png">
  <nav class="breadcrumb">Tier 1</nav>
</div>
</body></html>`

const bodyOnly = `<html><head><title>Shoob</title></head><body>
<main>
  <h1>Susuwatari</h1>
  <p>Card Maker: Kiki</p>
  <img src="https://cdn.shoob.gg/images/cards/2/own.png">
</main>
<h3>Related Cards</h3>
<section><h1>Decoy</h1><p>Card Maker: Mallory</p><img src="https://cdn.shoob.gg/images/cards/6/decoy.png"></section>
</body></html>`

func newExtractor(opts Options) *Extractor {
	if opts.BoundarySelectors == nil {
		opts.BoundarySelectors = []string{".related-cards", ".other-cards", "#related"}
	}
	if opts.APIBase == "" {
		opts.APIBase = "https://api.shoob.gg/site/api"
	}
	return New(opts, clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestExtract(t *testing.T) {
	Convey("Given a detail page with metadata and a related section", t, func() {
		e := newExtractor(Options{PreferHighRes: true, IncludeMetadata: true})
		c, err := e.Extract(susuwatari, cardURL, 7)
		So(err, ShouldBeNil)

		Convey("Metadata wins over related content", func() {
			So(c.Name, ShouldEqual, "Susuwatari")
			So(c.Creator, ShouldEqual, "Kiki")
			So(c.CardMaker, ShouldEqual, "Kiki")
			So(c.Series, ShouldEqual, "Spirited Away")
			So(c.CharacterSource, ShouldEqual, "Spirited Away")
			So(c.Metadata, ShouldNotContainKey, "conflict_name")
			So(c.Metadata, ShouldNotContainKey, "conflict_creator")
		})

		Convey("The breadcrumb tier beats the image hint and the conflict is recorded", func() {
			So(c.Tier, ShouldEqual, "5")
			So(c.Metadata["tier_conflict"], ShouldEqual, "image=3 breadcrumb=5")
		})

		Convey("Identity and bookkeeping fields are set", func() {
			So(c.ID, ShouldEqual, "5f2a")
			So(c.URL, ShouldEqual, cardURL)
			So(c.Page, ShouldEqual, 7)
			So(c.Valid(), ShouldBeTrue)
			So(c.Incomplete, ShouldBeFalse)
			So(c.ExtractedAt, ShouldEqual, "2026-01-02T03:04:05Z")
			So(c.LastUpdated.OrEmpty(), ShouldEqual, "2024-05-01T10:00:00Z")
		})

		Convey("The declarative image is the high resolution image", func() {
			So(c.ImageURL, ShouldEqual, "https://cdn.shoob.gg/images/cards/3/5f2a.png")
			So(c.HighResImageURL.OrEmpty(), ShouldEqual, c.ImageURL)
			So(c.Metadata["boundary"], ShouldEqual, ".related-cards")
		})
	})

	Convey("Given a page with only visible content before a related heading", t, func() {
		e := newExtractor(Options{PreferHighRes: true})
		c, err := e.Extract(bodyOnly, cardURL, 1)
		So(err, ShouldBeNil)

		Convey("Nothing after the heading is read", func() {
			So(c.Name, ShouldEqual, "Susuwatari")
			So(c.Creator, ShouldEqual, "Kiki")
			So(c.ImageURL, ShouldEqual, "https://cdn.shoob.gg/images/cards/2/own.png")
			So(c.Tier, ShouldEqual, "2")
			So(c.HighResImageURL.IsAbsent(), ShouldBeTrue)
			So(c.BestImage(), ShouldEqual, c.ImageURL)
			So(c.Series, ShouldEqual, "Unknown Series")
		})

		Convey("Raw metadata is omitted when disabled", func() {
			So(c.Metadata, ShouldBeNil)
		})
	})

	Convey("The body creator stops at its own element", t, func() {
		page := `<html><head></head><body><main><p>Card Maker: Kiki</p><p>Released 2023 in the Winter event</p></main></body></html>`
		c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
		So(err, ShouldBeNil)
		So(c.Creator, ShouldEqual, "Kiki")

		Convey("Inline markup inside the label element is kept", func() {
			page := `<html><head></head><body><div><p>Card Maker: <b>Nib</b></p><span>Tier 3</span></div></body></html>`
			c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
			So(err, ShouldBeNil)
			So(c.Creator, ShouldEqual, "Nib")
		})

		Convey("Text directly inside the body is still read", func() {
			page := `<html><head></head><body>Creator: Ann</body></html>`
			c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
			So(err, ShouldBeNil)
			So(c.Creator, ShouldEqual, "Ann")
		})
	})

	Convey("Boundary handling degrades gracefully", t, func() {
		Convey("Without any boundary the whole body is used", func() {
			page := `<html><head></head><body><h1>Solo</h1></body></html>`
			c, err := newExtractor(Options{IncludeMetadata: true}).Extract(page, cardURL, 1)
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Solo")
			So(c.Metadata, ShouldNotContainKey, "boundary")
		})

		Convey("Malformed selectors are dropped", func() {
			e := newExtractor(Options{BoundarySelectors: []string{"div[[[", "", ".related-cards"}})
			So(e.opts.BoundarySelectors, ShouldResemble, []string{".related-cards"})

			c, err := e.Extract(susuwatari, cardURL, 1)
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Susuwatari")
		})

		Convey("Unclosed markup does not leak related content", func() {
			page := `<html><body><div><h1>Mine<div class="related-cards"><h1>Decoy`
			c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Mine")
		})
	})

	Convey("Given conflicting identity signals", t, func() {
		page := `<html><head><meta property="og:url" content="/cards/info/bbb"></head><body></body></html>`
		c, err := newExtractor(Options{}).Extract(page, "https://shoob.gg/cards/info/aaa", 1)
		So(err, ShouldBeNil)
		So(c.ID, ShouldEqual, "bbb")
		So(c.URL, ShouldEqual, "https://shoob.gg/cards/info/bbb")
		So(c.Metadata["conflict_card_id"], ShouldEqual, "aaa")
	})

	Convey("Given a page without identity", t, func() {
		page := `<html><head><meta property="og:title" content="Ghost"></head><body></body></html>`

		Convey("It is flagged incomplete by default", func() {
			c, err := newExtractor(Options{}).Extract(page, "https://shoob.gg/cards", 1)
			So(err, ShouldBeNil)
			So(c.Incomplete, ShouldBeTrue)
			So(c.Valid(), ShouldBeFalse)
			So(c.Name, ShouldEqual, "Ghost")
		})

		Convey("It is dropped when skipping invalid cards", func() {
			_, err := newExtractor(Options{SkipInvalid: true}).Extract(page, "https://shoob.gg/cards", 1)
			So(errors.Is(err, ErrInvalid), ShouldBeTrue)

			var ee *ExtractionError
			So(errors.As(err, &ee), ShouldBeTrue)
			So(ee.Reason, ShouldEqual, "missing card id")
		})
	})

	Convey("Given sparse metadata", t, func() {
		page := `<html><head>
<title>Rem | Shoob</title>
<meta property="og:title" content="Card preview">
<meta name="description" content="Here you can preview the card">
<meta property="og:description" content="Rem tier: S &amp; friends">
</head><body></body></html>`
		c, err := newExtractor(Options{PreferHighRes: true}).Extract(page, cardURL, 1)
		So(err, ShouldBeNil)

		So(c.Name, ShouldEqual, "Rem")
		So(c.Description, ShouldEqual, "Rem tier: S & friends")
		So(c.ImageURL, ShouldEqual, "https://api.shoob.gg/site/api/cardr/5f2a?size=700")
		So(c.HighResImageURL.IsAbsent(), ShouldBeTrue)
		So(c.Tier, ShouldEqual, card.UnknownTier)
		So(c.Creator, ShouldBeEmpty)
	})

	Convey("Title tiers are the last fallback", t, func() {
		page := `<html><head><meta property="og:title" content="Rem tier: s"></head><body></body></html>`
		c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
		So(err, ShouldBeNil)
		So(c.Tier, ShouldEqual, "S")
	})

	Convey("Non-tier conflicts keep metadata and audit the body value", t, func() {
		page := `<html><head><meta property="og:title" content="Chihiro"></head><body><h1>Sen</h1></body></html>`
		c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
		So(err, ShouldBeNil)
		So(c.Name, ShouldEqual, "Chihiro")
		So(c.Metadata["conflict_name"], ShouldEqual, "Sen")
	})

	Convey("Long fields are capped", t, func() {
		long := strings.Repeat("x", 700)
		page := `<html><head><meta property="og:title" content="` + long + `"><meta name="description" content="` + long + `"></head></html>`
		c, err := newExtractor(Options{}).Extract(page, cardURL, 1)
		So(err, ShouldBeNil)
		So(len(c.Name), ShouldEqual, MaxName)
		So(len(c.Description), ShouldEqual, MaxDescription)
	})
}

func TestTruncate(t *testing.T) {
	Convey("truncate removes the marker and everything after it", t, func() {
		page := `<html><body><div><section><p>own</p><div class="related-cards">x</div><p>after1</p></section><p>after2</p></div><footer>f</footer></body></html>`
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
		So(err, ShouldBeNil)

		body := doc.Find("body")
		So(truncate(body, []string{"#none", ".related-cards"}), ShouldEqual, ".related-cards")
		So(strings.TrimSpace(body.Text()), ShouldEqual, "own")
	})

	Convey("The earliest marker wins regardless of selector order", t, func() {
		page := `<html><body><p>own</p><div id="related">a</div><p>between</p><div class="other-cards">b</div></body></html>`
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
		So(err, ShouldBeNil)

		body := doc.Find("body")
		So(truncate(body, []string{".other-cards", "#related"}), ShouldEqual, "#related")
		So(body.Text(), ShouldNotContainSubstring, "between")
	})
}

func TestHelpers(t *testing.T) {
	Convey("seriesFrom and creatorFrom follow the description layout", t, func() {
		desc := `Totoro from My Neighbor Totoro\nCreators: - Card Maker: Nib&nbsp;`
		So(seriesFrom(desc), ShouldEqual, "My Neighbor Totoro")
		So(creatorFrom(desc), ShouldEqual, "Nib")
		So(creatorFrom("Creator: Ann"), ShouldEqual, "Ann")
		So(seriesFrom("no series here"), ShouldBeEmpty)
	})

	Convey("clean collapses whitespace and escaped newlines", t, func() {
		So(clean("  a \n\t b\\nc "), ShouldEqual, "a b c")
	})
}
