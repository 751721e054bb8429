package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cardsweep/cardsweep/clock"
	"github.com/cardsweep/cardsweep/ready"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a tracker on a fake clock", t, func() {
		fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		tr := NewTracker(fake, "session_x")

		Convey("An empty session has zero rates", func() {
			s := tr.Snapshot()
			So(s.SessionID, ShouldEqual, "session_x")
			So(s.SuccessRate, ShouldEqual, 0)
			So(s.CardsPerSecond, ShouldEqual, 0)
			So(s.AverageCardsPerPage, ShouldEqual, 0)
		})

		Convey("Counters and rates are derived", func() {
			tr.PageAttempted()
			tr.AttemptFailed(2)
			tr.PageAttempted()
			tr.AttemptFailed(2)
			tr.PageAttempted()
			tr.PageCompleted()
			tr.PageCompleted()
			tr.PageSkipped()
			tr.CardsExtracted(30)
			tr.RecordWait(ready.KindPage, 2*time.Second, 30*time.Second)
			tr.RecordWait(ready.KindCard, time.Second, 15*time.Second)
			tr.RecordWait(ready.KindCard, 3*time.Second, 15*time.Second)
			fake.Advance(60 * time.Second)

			s := tr.Snapshot()
			So(tr.FailedAttempts(2), ShouldEqual, 2)
			So(s.FailedAttempts[2], ShouldEqual, 2)
			So(s.PagesAttempted, ShouldEqual, 3)
			So(s.TotalErrors, ShouldEqual, 2)
			So(s.SuccessRate, ShouldEqual, 50.0)
			So(s.ElapsedTime, ShouldEqual, 60.0)
			So(s.CardsPerSecond, ShouldEqual, 0.5)
			So(s.PagesPerMinute, ShouldEqual, 2.0)
			So(s.AverageCardsPerPage, ShouldEqual, 15.0)

			w := s.WaitTimeAnalytics
			So(w.TotalWaitTime, ShouldEqual, 6.0)
			So(w.AveragePageLoad, ShouldEqual, 2.0)
			So(w.AverageCardLoad, ShouldEqual, 2.0)
			So(w.WaitEfficiency, ShouldEqual, 90.0)
			So(w.BudgetUtilization, ShouldEqual, 10.0)
		})

		Convey("Failed pages in a row are counted until a page completes", func() {
			So(tr.PageFailed(), ShouldEqual, 1)
			So(tr.PageFailed(), ShouldEqual, 2)
			So(tr.Snapshot().ConsecutiveFailures, ShouldEqual, 2)

			tr.PageSkipped()
			So(tr.Snapshot().ConsecutiveFailures, ShouldEqual, 2)

			tr.PageCompleted()
			So(tr.Snapshot().ConsecutiveFailures, ShouldEqual, 0)
			So(tr.PageFailed(), ShouldEqual, 1)
			So(tr.Snapshot().PagesFailed, ShouldEqual, 3)
		})

		Convey("Snapshots do not share the attempt map", func() {
			tr.AttemptFailed(1)
			s := tr.Snapshot()
			s.FailedAttempts[1] = 99
			So(tr.FailedAttempts(1), ShouldEqual, 1)
		})

		Convey("The JSON block uses the documented names", func() {
			data, err := json.Marshal(tr.Snapshot())
			So(err, ShouldBeNil)
			for _, name := range []string{
				"session_id", "pages_scraped", "pages_skipped", "cards_extracted", "total_errors",
				"success_rate", "elapsed_time", "cards_per_second", "pages_per_minute",
				"average_cards_per_page", "wait_time_analytics", "total_wait_time",
				"average_page_load", "average_card_load", "wait_efficiency",
			} {
				So(string(data), ShouldContainSubstring, `"`+name+`"`)
			}
			So(string(data), ShouldNotContainSubstring, "PagesAttempted")
		})
	})
}
