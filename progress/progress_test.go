package progress

import (
	"strings"
	"testing"
	"time"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/clock"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

const path = "output/process.json"

func TestStore(t *testing.T) {
	Convey("Given an empty filesystem", t, func() {
		fs := afero.NewMemMapFs()
		fake := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

		s, err := Load(fs, path, fake)
		So(err, ShouldBeNil)

		Convey("Every page starts out not started", func() {
			So(s.Status(1), ShouldEqual, card.StatusNotStarted)
			So(s.State().LastCompleted(), ShouldEqual, 0)
		})

		Convey("Statuses survive a save and reload", func() {
			s.StartSession("session_a")
			s.MarkFailed(2, 3)
			s.MarkCompleted(3)
			s.MarkCompleted(1)
			s.SetTotalCards(30)
			So(s.Save(), ShouldBeNil)

			loaded, err := Load(fs, path, fake)
			So(err, ShouldBeNil)

			st := loaded.State()
			So(st.SessionID, ShouldEqual, "session_a")
			So(st.ScrapedPages, ShouldResemble, []int{1, 3})
			So(st.FailedPages, ShouldResemble, []int{2})
			So(st.Attempts[2], ShouldEqual, 3)
			So(st.TotalCards, ShouldEqual, 30)
			So(st.LastUpdated, ShouldEqual, "2026-03-01T12:00:00Z")
			So(st.ScraperVersion, ShouldNotBeEmpty)
			So(loaded.Status(2), ShouldEqual, card.StatusFailed)
			So(st.LastCompleted(), ShouldEqual, 3)

			Convey("A failed page that later completes leaves the failed list", func() {
				loaded.MarkCompleted(2)
				So(loaded.Failed(), ShouldBeEmpty)
				So(loaded.Completed(), ShouldResemble, []int{1, 2, 3})
				So(loaded.State().Attempts, ShouldNotContainKey, 2)
			})
		})

		Convey("Files listing only scraped pages are upgraded", func() {
			So(afero.WriteFile(fs, path, []byte(`{"scraped_pages":[4,5],"total_cards":12}`), 0o644), ShouldBeNil)

			legacy, err := Load(fs, path, fake)
			So(err, ShouldBeNil)
			So(legacy.Status(4), ShouldEqual, card.StatusCompleted)
			So(legacy.Status(5), ShouldEqual, card.StatusCompleted)
			So(legacy.State().TotalCards, ShouldEqual, 12)
		})

		Convey("A corrupt file is moved aside", func() {
			So(afero.WriteFile(fs, path, []byte(`{"pages":`), 0o644), ShouldBeNil)

			fresh, err := Load(fs, path, fake)
			So(err, ShouldBeNil)
			So(fresh.Completed(), ShouldBeEmpty)

			exists, _ := afero.Exists(fs, path+".corrupt")
			So(exists, ShouldBeTrue)
		})

		Convey("Write failures are reported", func() {
			ro, err := Load(afero.NewReadOnlyFs(fs), path, fake)
			So(err, ShouldBeNil)
			So(ro.Save(), ShouldNotBeNil)
		})

		Convey("Read parses without touching the file", func() {
			So(afero.WriteFile(fs, path, []byte(`{"scraped_pages":[2,7]}`), 0o644), ShouldBeNil)

			st, err := Read(fs, path)
			So(err, ShouldBeNil)
			So(st.Pages[7], ShouldEqual, card.StatusCompleted)
			So(st.ScrapedPages, ShouldResemble, []int{2, 7})

			So(afero.WriteFile(fs, path, []byte(`{`), 0o644), ShouldBeNil)
			_, err = Read(fs, path)
			So(err, ShouldNotBeNil)
			exists, _ := afero.Exists(fs, path+".corrupt")
			So(exists, ShouldBeFalse)
		})

		Convey("Compact output has no indentation", func() {
			s.SetPretty(false)
			So(s.Save(), ShouldBeNil)
			data, _ := afero.ReadFile(fs, path)
			So(strings.Contains(string(data), "\n"), ShouldBeFalse)
		})
	})

	Convey("Session ids are prefixed and unique", t, func() {
		a, b := NewSessionID(), NewSessionID()
		So(a, ShouldStartWith, "session_")
		So(a, ShouldNotEqual, b)
	})
}
