package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// Metadata bag keys.
const (
	metaDescription      = "meta_name_description"
	ogTitle              = "meta_property_og:title"
	ogDescription        = "meta_property_og:description"
	ogImage              = "meta_property_og:image"
	ogURL                = "meta_property_og:url"
	ogUpdated            = "meta_property_og:updated_time"
	modified             = "meta_property_article:modified_time"
	twitterImageName     = "meta_name_twitter:image"
	twitterImageProperty = "meta_property_twitter:image"
	pageTitle            = "page_title"
	linkCanonical        = "link_canonical"
)

// metaBag collects every declarative head signal keyed by its origin.
func metaBag(doc *goquery.Document) map[string]string {
	bag := make(map[string]string)

	doc.Find("head meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			return
		}
		if name, ok := s.Attr("name"); ok && name != "" {
			bag["meta_name_"+name] = content
		}
		if prop, ok := s.Attr("property"); ok && prop != "" {
			bag["meta_property_"+prop] = content
		}
	})

	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		bag[pageTitle] = title
	}
	if href, ok := doc.Find("head link[rel='canonical']").First().Attr("href"); ok && href != "" {
		bag[linkCanonical] = href
	}

	return bag
}

// visible holds body signals read before the boundary.
type visible struct {
	name        string
	series      string
	creator     string
	description string
	image       string
	tier        string
}

// creatorInBody matches the creator patterns against the innermost element holding a label,
// so text from neighbouring elements never runs into the captured name.
func creatorInBody(body *goquery.Selection) string {
	labelled := func(s *goquery.Selection) bool {
		return lo.SomeBy(creatorPatterns, func(p *regexp.Regexp) bool { return p.MatchString(s.Text()) })
	}

	var found string
	body.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !labelled(s) {
			return true
		}
		if s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool { return labelled(c) }).Length() > 0 {
			return true
		}
		found = creatorFrom(s.Text())
		return found == ""
	})
	if found != "" {
		return found
	}

	own := body.Contents().FilterFunction(func(_ int, s *goquery.Selection) bool { return goquery.NodeName(s) == "#text" })
	return creatorFrom(own.Text())
}

const breadcrumbSelector = ".breadcrumb, .breadcrumbs, nav[aria-label='breadcrumb'], [class*='breadcrumb']"

var breadcrumbNoise = []string{"home", "cards", "shoob", "card"}

func visibleSignals(body *goquery.Selection) visible {
	var v visible

	v.name = body.Find("h1, .card-name").First().Text()
	v.description = body.Find(".card-description").First().Text()

	if maker := body.Find(".card-maker, .creator").First(); maker.Length() > 0 {
		v.creator = creatorFrom(maker.Text())
		if v.creator == "" {
			v.creator = maker.Text()
		}
	} else {
		v.creator = creatorInBody(body)
	}

	body.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := lo.FirstOrEmpty(lo.Compact([]string{s.AttrOr("src", ""), s.AttrOr("data-src", "")}))
		if strings.Contains(src, "/cards/") {
			v.image = src
			return false
		}
		return true
	})

	crumbs := body.Find(breadcrumbSelector).First()
	if crumbs.Length() == 0 {
		return v
	}

	items := crumbs.Find("li, a")
	if items.Length() == 0 {
		items = crumbs
	}
	var segments []string
	items.Each(func(_ int, s *goquery.Selection) {
		text := clean(s.Text())
		if m := labelTierPattern.FindStringSubmatch(text); m != nil {
			if v.tier == "" {
				v.tier = m[1]
			}
			return
		}
		if text == "" || lo.Contains(breadcrumbNoise, strings.ToLower(text)) {
			return
		}
		segments = append(segments, text)
	})
	segments = lo.Uniq(segments)

	// The last crumb is the card itself; the one before it names the series.
	if len(segments) >= 2 {
		v.series = segments[len(segments)-2]
	} else if len(segments) == 1 && !strings.EqualFold(segments[0], clean(v.name)) {
		v.series = segments[0]
	}

	return v
}
