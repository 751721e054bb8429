package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/progress"
	"github.com/cardsweep/cardsweep/style"
	"github.com/cardsweep/cardsweep/util"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// SampleSize is how many cards a summary previews.
const SampleSize = 3

// Sample is a preview of one stored card.
type Sample struct {
	Name   string `json:"name"`
	Tier   string `json:"tier"`
	Series string `json:"series"`
}

// Summary describes what the output artifacts currently hold.
type Summary struct {
	TotalCards   int      `json:"total_cards"`
	ScrapedPages []int    `json:"scraped_pages"`
	OutputFile   string   `json:"output_file,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
	FileSizeMB   float64  `json:"file_size_mb"`
	Samples      []Sample `json:"sample_cards"`
}

// Summarize reads the output document and progress file. Either may be missing.
// When query is not empty the samples are the best fuzzy matches on card names
// instead of the first cards.
func Summarize(fsys afero.Fs, dataPath, progressPath, query string) (*Summary, error) {
	s := &Summary{ScrapedPages: []int{}, Samples: []Sample{}}

	if st, err := progress.Read(fsys, progressPath); err == nil {
		s.ScrapedPages = st.ScrapedPages
		s.SessionID = st.SessionID
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	doc, err := output.Read(fsys, dataPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}

	info, err := fsys.Stat(dataPath)
	if err != nil {
		return nil, err
	}

	s.OutputFile = dataPath
	s.FileSizeMB = util.Round(float64(info.Size())/(1024*1024), 2)
	s.TotalCards = len(doc.Cards)

	cards := doc.Cards
	if query != "" {
		cards = Find(cards, query)
	}

	s.Samples = lo.Map(cards[:min(SampleSize, len(cards))], func(c card.Card, _ int) Sample {
		return Sample{Name: c.Name, Tier: c.Tier, Series: c.CharacterSource}
	})
	return s, nil
}

// Find ranks cards whose name fuzzily contains query, closest first.
func Find(cards []card.Card, query string) []card.Card {
	names := lo.Map(cards, func(c card.Card, _ int) string { return c.Name })

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) card.Card {
		return cards[r.OriginalIndex]
	})
}

// Print writes s in the CLI layout.
func (s *Summary) Print(w io.Writer) {
	if s.OutputFile == "" {
		fmt.Fprintf(w, "%s No output document yet\n", icon.Get(icon.Warn))
		return
	}

	fmt.Fprintf(w, "%s %s\n", icon.Get(icon.Stats), style.Bold("Scraped data"))
	fmt.Fprintf(w, "  %s    %d\n", style.Faint("Total cards"), s.TotalCards)
	fmt.Fprintf(w, "  %s  %d\n", style.Faint("Scraped pages"), len(s.ScrapedPages))
	fmt.Fprintf(w, "  %s      %.2f MB\n", style.Faint("File size"), s.FileSizeMB)
	fmt.Fprintf(w, "  %s         %s\n", style.Faint("Output"), s.OutputFile)

	if len(s.Samples) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s %s\n", icon.Get(icon.Card), style.Bold("Samples"))
	for _, sample := range s.Samples {
		fmt.Fprintf(w, "  %s %s %s\n", style.Tier(sample.Tier), sample.Name, style.Faint(sample.Series))
	}
}
