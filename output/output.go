// Package output builds and persists the output document: a run header followed by every card in page order.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/stats"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Header is the run metadata written above the cards.
type Header struct {
	Timestamp         string           `json:"timestamp"`
	ScraperVersion    string           `json:"scraper_version"`
	TotalCards        int              `json:"total_cards"`
	Source            string           `json:"source"`
	SessionStatistics stats.Statistics `json:"session_statistics"`
}

// Document is the output artifact.
type Document struct {
	Metadata Header      `json:"metadata"`
	Cards    []card.Card `json:"cards"`
}

// Read parses the document at path.
func Read(fsys afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// Store holds cards grouped by list page and rewrites the whole document on Save.
type Store struct {
	fs     afero.Fs
	path   string
	source string
	pretty bool
	clock  clock.Clock
	pages  map[int][]card.Card
}

// Load reads the existing document at path so earlier pages are kept. A missing file yields an empty store.
func Load(fsys afero.Fs, path, source string, c clock.Clock) (*Store, error) {
	s := &Store{
		fs:     fsys,
		path:   path,
		source: source,
		pretty: true,
		clock:  c,
		pages:  make(map[int][]card.Card),
	}

	doc, err := Read(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}

	for _, c := range doc.Cards {
		s.pages[c.Page] = append(s.pages[c.Page], c)
	}
	return s, nil
}

// SetPretty toggles JSON indentation.
func (s *Store) SetPretty(pretty bool) {
	s.pretty = pretty
}

// Path returns where the document is written.
func (s *Store) Path() string {
	return s.path
}

// Put replaces the cards of page.
func (s *Store) Put(page int, cards []card.Card) {
	if len(cards) == 0 {
		delete(s.pages, page)
		return
	}
	s.pages[page] = slices.Clone(cards)
}

// Cards returns the stored cards of page.
func (s *Store) Cards(page int) []card.Card {
	return slices.Clone(s.pages[page])
}

// ValidCount returns how many stored cards of page pass validation.
func (s *Store) ValidCount(page int) int {
	return lo.CountBy(s.pages[page], func(c card.Card) bool { return c.Valid() })
}

// Pages returns the pages holding cards, ascending.
func (s *Store) Pages() []int {
	pages := lo.Keys(s.pages)
	slices.Sort(pages)
	return pages
}

// All returns every card ordered by page, then by extraction order.
func (s *Store) All() []card.Card {
	return lo.FlatMap(s.Pages(), func(p int, _ int) []card.Card { return s.pages[p] })
}

// Total returns the number of stored cards.
func (s *Store) Total() int {
	return lo.SumBy(lo.Values(s.pages), func(cards []card.Card) int { return len(cards) })
}

// Document assembles the artifact with st as its statistics block.
func (s *Store) Document(st stats.Statistics) Document {
	cards := s.All()
	if cards == nil {
		cards = []card.Card{}
	}
	return Document{
		Metadata: Header{
			Timestamp:         s.clock.Now().UTC().Format(time.RFC3339),
			ScraperVersion:    constant.Version,
			TotalCards:        len(cards),
			Source:            s.source,
			SessionStatistics: st,
		},
		Cards: cards,
	}
}

// Save rewrites the document atomically.
func (s *Store) Save(st stats.Statistics) error {
	doc := s.Document(st)

	var (
		data []byte
		err  error
	)
	if s.pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	return filesystem.WriteAtomic(s.fs, s.path, data)
}
