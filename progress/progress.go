// Package progress persists which list pages a harvest has completed so a later run can resume.
package progress

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
	"github.com/cardsweep/cardsweep/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// State is the on-disk progress document.
type State struct {
	SessionID      string              `json:"session_id"`
	LastUpdated    string              `json:"last_updated"`
	ScraperVersion string              `json:"scraper_version"`
	ScrapedPages   []int               `json:"scraped_pages"`
	FailedPages    []int               `json:"failed_pages"`
	Pages          map[int]card.Status `json:"pages"`
	TotalCards     int                 `json:"total_cards"`
	Attempts       map[int]int         `json:"attempts"`
}

// LastCompleted returns the highest completed page, 0 when none.
func (st State) LastCompleted() int {
	return lo.Max(st.ScrapedPages)
}

// NewSessionID returns a fresh run identifier.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

// Read parses the progress file at path without modifying it.
// Legacy files that only list scraped pages are upgraded in the returned copy.
func Read(fsys afero.Fs, path string) (*State, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	s := &Store{}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.normalize()
	return &s.state, nil
}

// Store owns the progress state of one run.
type Store struct {
	fs     afero.Fs
	path   string
	pretty bool
	clock  clock.Clock
	state  State
}

// Load reads path. A missing file yields an empty state; an unreadable one is
// moved aside with a .corrupt suffix and also yields an empty state.
func Load(fsys afero.Fs, path string, c clock.Clock) (*Store, error) {
	s := &Store{fs: fsys, path: path, pretty: true, clock: c}

	data, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read progress: %w", err)
	default:
		if err := json.Unmarshal(data, &s.state); err != nil {
			log.Warnf("progress file %s is corrupt, starting over: %s", path, err)
			if err := fsys.Rename(path, path+".corrupt"); err != nil {
				log.Warnf("move corrupt progress aside: %s", err)
			}
			s.state = State{}
		}
	}

	s.normalize()
	return s, nil
}

// normalize fills maps and upgrades files that only list scraped pages.
func (s *Store) normalize() {
	if s.state.Pages == nil {
		s.state.Pages = make(map[int]card.Status)
		for _, p := range s.state.ScrapedPages {
			s.state.Pages[p] = card.StatusCompleted
		}
		for _, p := range s.state.FailedPages {
			s.state.Pages[p] = card.StatusFailed
		}
	}
	if s.state.Attempts == nil {
		s.state.Attempts = make(map[int]int)
	}
	s.reindex()
}

func (s *Store) reindex() {
	s.state.ScrapedPages = s.pagesWith(card.StatusCompleted)
	s.state.FailedPages = s.pagesWith(card.StatusFailed)
}

func (s *Store) pagesWith(status card.Status) []int {
	pages := lo.Keys(lo.PickByValues(s.state.Pages, []card.Status{status}))
	slices.Sort(pages)
	return pages
}

// SetPretty toggles JSON indentation.
func (s *Store) SetPretty(pretty bool) {
	s.pretty = pretty
}

// StartSession stamps a new session id.
func (s *Store) StartSession(id string) {
	s.state.SessionID = id
}

// Status returns the recorded status of page.
func (s *Store) Status(page int) card.Status {
	if st, ok := s.state.Pages[page]; ok {
		return st
	}
	return card.StatusNotStarted
}

// MarkCompleted records page as completed.
func (s *Store) MarkCompleted(page int) {
	s.state.Pages[page] = card.StatusCompleted
	delete(s.state.Attempts, page)
	s.reindex()
}

// MarkFailed records page as failed after attempts failed tries.
func (s *Store) MarkFailed(page, attempts int) {
	s.state.Pages[page] = card.StatusFailed
	s.state.Attempts[page] = attempts
	s.reindex()
}

// SetTotalCards records the card count of the output document.
func (s *Store) SetTotalCards(n int) {
	s.state.TotalCards = n
}

// Completed returns completed pages in ascending order.
func (s *Store) Completed() []int {
	return slices.Clone(s.state.ScrapedPages)
}

// Failed returns failed pages in ascending order.
func (s *Store) Failed() []int {
	return slices.Clone(s.state.FailedPages)
}

// State returns a copy of the current state.
func (s *Store) State() State {
	st := s.state
	st.Pages = lo.Assign(s.state.Pages)
	st.Attempts = lo.Assign(s.state.Attempts)
	st.ScrapedPages = slices.Clone(s.state.ScrapedPages)
	st.FailedPages = slices.Clone(s.state.FailedPages)
	return st
}

// Save writes the state atomically.
func (s *Store) Save() error {
	s.state.LastUpdated = s.clock.Now().UTC().Format(time.RFC3339)
	s.state.ScraperVersion = constant.Version

	var (
		data []byte
		err  error
	)
	if s.pretty {
		data, err = json.MarshalIndent(s.state, "", "  ")
	} else {
		data, err = json.Marshal(s.state)
	}
	if err != nil {
		return err
	}

	return filesystem.WriteAtomic(s.fs, s.path, data)
}
