package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/cardsweep/cardsweep/log"
	"golang.org/x/net/html"
)

// relatedHeading matches section titles such as "Related Cards" or "More from this series".
var relatedHeading = regexp.MustCompile(`(?i)^\s*(related|other|similar|more)\b.*\b(cards?|from)\b`)

// ValidSelectors drops selectors that do not compile, logging each.
func ValidSelectors(selectors []string) []string {
	valid := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, err := cascadia.Compile(s); err != nil {
			log.Warnf("ignoring boundary selector %q: %s", s, err)
			continue
		}
		valid = append(valid, s)
	}
	return valid
}

// truncate removes the first boundary marker of body and everything that follows it
// in document order. It returns what matched, or an empty string when nothing did.
func truncate(body *goquery.Selection, selectors []string) string {
	body.Find("script, style, noscript, template").Remove()

	order := make(map[*html.Node]int)
	body.Find("*").Each(func(i int, s *goquery.Selection) {
		order[s.Get(0)] = i
	})

	var (
		marker *goquery.Selection
		found  string
		best   = -1
	)

	consider := func(s *goquery.Selection, name string) {
		if s.Length() == 0 {
			return
		}
		idx, ok := order[s.Get(0)]
		if !ok {
			return
		}
		if best < 0 || idx < best {
			marker, found, best = s, name, idx
		}
	}

	for _, sel := range selectors {
		consider(body.Find(sel).First(), sel)
	}

	consider(body.Find("h2, h3, h4, h5").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return relatedHeading.MatchString(s.Text())
	}).First(), "heading")

	if marker == nil {
		return ""
	}

	ancestors := marker.ParentsUntilSelection(body)
	marker.NextAll().Remove()
	marker.Remove()
	ancestors.Each(func(_ int, p *goquery.Selection) {
		p.NextAll().Remove()
	})

	return found
}
