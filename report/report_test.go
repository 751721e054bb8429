package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/harvest"
	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/progress"
	"github.com/cardsweep/cardsweep/stats"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

const (
	dir          = "output"
	dataPath     = "output/data.json"
	progressPath = "output/process.json"
)

func sampleCard(page int, id, name, tier string) card.Card {
	return card.Card{
		ID:              id,
		URL:             "https://shoob.gg/cards/info/" + id,
		Page:            page,
		Name:            name,
		Tier:            tier,
		CharacterSource: "Spirited Away",
	}
}

// seed writes a document with the given cards and a progress file claiming total cards.
func seed(fs afero.Fs, total int, cards ...card.Card) {
	fake := clock.NewFake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	store, err := output.Load(fs, dataPath, "https://shoob.gg", fake)
	So(err, ShouldBeNil)
	for page, onPage := range lo.GroupBy(cards, func(c card.Card) int { return c.Page }) {
		store.Put(page, onPage)
	}
	So(store.Save(stats.Statistics{}), ShouldBeNil)

	prog, err := progress.Load(fs, progressPath, fake)
	So(err, ShouldBeNil)
	for _, p := range store.Pages() {
		prog.MarkCompleted(p)
	}
	prog.StartSession("session_x")
	prog.SetTotalCards(total)
	So(prog.Save(), ShouldBeNil)
}

func TestSummarize(t *testing.T) {
	Convey("Given no artifacts", t, func() {
		fs := afero.NewMemMapFs()

		s, err := Summarize(fs, dataPath, progressPath, "")
		So(err, ShouldBeNil)

		Convey("The summary is empty", func() {
			So(s.TotalCards, ShouldEqual, 0)
			So(s.OutputFile, ShouldBeEmpty)
			So(s.ScrapedPages, ShouldBeEmpty)

			var buf bytes.Buffer
			s.Print(&buf)
			So(buf.String(), ShouldContainSubstring, "No output document yet")
		})
	})

	Convey("Given a document with four cards on two pages", t, func() {
		fs := afero.NewMemMapFs()
		seed(fs, 4,
			sampleCard(1, "a1", "Susuwatari", "3"),
			sampleCard(1, "a2", "No-Face", "5"),
			sampleCard(2, "b1", "Haku", "S"),
			sampleCard(2, "b2", "Susuwatari Gold", "6"),
		)

		Convey("Totals, pages and the first three cards are reported", func() {
			s, err := Summarize(fs, dataPath, progressPath, "")
			So(err, ShouldBeNil)
			So(s.TotalCards, ShouldEqual, 4)
			So(s.ScrapedPages, ShouldResemble, []int{1, 2})
			So(s.SessionID, ShouldEqual, "session_x")
			So(s.OutputFile, ShouldEqual, dataPath)
			So(s.Samples, ShouldHaveLength, SampleSize)
			So(s.Samples[0], ShouldResemble, Sample{Name: "Susuwatari", Tier: "3", Series: "Spirited Away"})

			var buf bytes.Buffer
			s.Print(&buf)
			So(buf.String(), ShouldContainSubstring, "Haku")
			So(buf.String(), ShouldContainSubstring, "MB")
		})

		Convey("A query narrows the samples to fuzzy matches", func() {
			s, err := Summarize(fs, dataPath, progressPath, "susu")
			So(err, ShouldBeNil)
			So(s.Samples, ShouldHaveLength, 2)
			So(s.Samples[0].Name, ShouldEqual, "Susuwatari")
			So(s.Samples[1].Name, ShouldEqual, "Susuwatari Gold")
		})

		Convey("A corrupt document is an error", func() {
			So(afero.WriteFile(fs, dataPath, []byte("{"), 0o644), ShouldBeNil)
			_, err := Summarize(fs, dataPath, progressPath, "")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given only a progress file", t, func() {
		fs := afero.NewMemMapFs()
		So(afero.WriteFile(fs, progressPath, []byte(`{"scraped_pages":[1]}`), 0o644), ShouldBeNil)

		v := Verify(fs, dir, dataPath, progressPath)

		Convey("Verification fails and lists the directory", func() {
			So(v.OK(), ShouldBeFalse)
			So(v.DataExists, ShouldBeFalse)
			So(v.ProgressExists, ShouldBeTrue)
			So(v.Listing, ShouldResemble, []string{"process.json"})

			var buf bytes.Buffer
			v.Print(&buf)
			So(buf.String(), ShouldContainSubstring, "data.json missing")
			So(buf.String(), ShouldContainSubstring, "process.json exists")
		})
	})

	Convey("Given matching artifacts", t, func() {
		fs := afero.NewMemMapFs()
		seed(fs, 2, sampleCard(1, "a1", "One", "1"), sampleCard(3, "c1", "Three", "2"))

		v := Verify(fs, dir, dataPath, progressPath)

		Convey("They verify and agree", func() {
			So(v.OK(), ShouldBeTrue)
			So(v.Consistent(), ShouldBeTrue)
			So(v.CardCount, ShouldEqual, 2)
			So(v.CompletedPages, ShouldEqual, 2)
		})

		Convey("Step outputs are appended", func() {
			So(afero.WriteFile(fs, "gh_output", []byte("x=1\n"), 0o644), ShouldBeNil)
			So(v.WriteOutputs(fs, "gh_output"), ShouldBeNil)

			data, _ := afero.ReadFile(fs, "gh_output")
			So(string(data), ShouldEqual, "x=1\ncard_count=2\ncompleted_pages=2\n")
		})
	})

	Convey("Given artifacts that disagree on the card count", t, func() {
		fs := afero.NewMemMapFs()
		seed(fs, 7, sampleCard(1, "a1", "One", "1"))

		v := Verify(fs, dir, dataPath, progressPath)

		Convey("Verification passes with a warning", func() {
			So(v.OK(), ShouldBeTrue)
			So(v.Consistent(), ShouldBeFalse)

			var buf bytes.Buffer
			v.Print(&buf)
			So(buf.String(), ShouldContainSubstring, "Card count mismatch (data.json: 1, process.json: 7)")
		})
	})

	Convey("Given a corrupt progress file", t, func() {
		fs := afero.NewMemMapFs()
		seed(fs, 1, sampleCard(1, "a1", "One", "1"))
		So(afero.WriteFile(fs, progressPath, []byte("nope"), 0o644), ShouldBeNil)

		v := Verify(fs, dir, dataPath, progressPath)
		So(v.OK(), ShouldBeFalse)
		So(v.Err, ShouldNotBeNil)
	})
}

func TestLastPage(t *testing.T) {
	Convey("Given no progress file", t, func() {
		page, err := LastPage(afero.NewMemMapFs(), progressPath)
		So(err, ShouldBeNil)
		So(page, ShouldEqual, 0)
	})

	Convey("Given completed pages", t, func() {
		fs := afero.NewMemMapFs()
		So(afero.WriteFile(fs, progressPath, []byte(`{"scraped_pages":[3,9,4]}`), 0o644), ShouldBeNil)

		page, err := LastPage(fs, progressPath)
		So(err, ShouldBeNil)
		So(page, ShouldEqual, 9)
	})
}

func TestRunReport(t *testing.T) {
	Convey("Given an aborted run", t, func() {
		res := &harvest.RunResult{
			Status:           harvest.StatusAborted,
			PagesCompleted:   1,
			CardsExtracted:   12,
			FailedPages:      []int{2, 5},
			UnrecoveredCards: []string{"https://shoob.gg/cards/info/ff"},
			Statistics:       stats.Statistics{PagesScraped: 1, CardsExtracted: 12, SuccessRate: 75},
			Err:              harvest.ErrTooManyFailures,
		}

		var buf bytes.Buffer
		So(Run(&buf, res), ShouldBeNil)
		out := buf.String()

		Convey("The block lists counts, failures and the cause", func() {
			So(out, ShouldContainSubstring, "Aborted:")
			So(out, ShouldContainSubstring, "1 page and 12 cards")
			So(out, ShouldContainSubstring, "2 5")
			So(out, ShouldContainSubstring, "75%")
			So(out, ShouldContainSubstring, harvest.ErrTooManyFailures.Error())
		})
	})

	Convey("Given a completed run", t, func() {
		res := &harvest.RunResult{Status: harvest.StatusCompleted, PagesCompleted: 3, CardsExtracted: 1}

		So(Headline(res), ShouldContainSubstring, "1 card from 3 pages")

		var buf bytes.Buffer
		So(Run(&buf, res), ShouldBeNil)
		So(buf.String(), ShouldNotContainSubstring, "Failed pages")
	})

	Convey("Given an interrupted run", t, func() {
		res := &harvest.RunResult{Status: harvest.StatusInterrupted, Err: errors.New("context canceled")}
		So(Headline(res), ShouldContainSubstring, "Interrupted:")
	})

	Convey("The banner shows the plan", t, func() {
		var buf bytes.Buffer
		So(Banner(&buf, Plan{Start: 4, End: 9, Engine: "rod", Resume: true}), ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "4-9")
		So(buf.String(), ShouldContainSubstring, "rod")
	})
}

func TestProgress(t *testing.T) {
	Convey("Given a progress line", t, func() {
		var buf bytes.Buffer
		p := NewProgress(&buf, 0)

		Convey("Each update redraws in place", func() {
			p.Update(harvest.Event{Page: 3, Index: 1, Total: 4})
			So(buf.String(), ShouldEqual, "\rProcessing cards: [1/4] (25.0%) page 3")

			buf.Reset()
			p.Update(harvest.Event{Page: 3, Index: 4, Total: 4})
			So(buf.String(), ShouldEqual, "\rProcessing cards: [4/4] (100.0%) page 3")
		})

		Convey("A shorter line clears what the longer one left", func() {
			p.Update(harvest.Event{Page: 10, Index: 10, Total: 10})
			buf.Reset()
			p.Update(harvest.Event{Page: 1, Index: 1, Total: 2})
			So(buf.String(), ShouldEndWith, "page 1    ")
		})

		Convey("Done erases the line", func() {
			p.Update(harvest.Event{Page: 1, Index: 1, Total: 1})
			buf.Reset()
			p.Done()
			So(strings.TrimSpace(buf.String()), ShouldBeEmpty)
		})

		Convey("Narrow terminals get a truncated line", func() {
			narrow := NewProgress(&buf, 12)
			narrow.Update(harvest.Event{Page: 1, Index: 1, Total: 1})
			So(buf.String(), ShouldEqual, "\rProcessing ")
		})
	})
}
