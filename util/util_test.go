package util

import (
	"regexp"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.txt"), ShouldEqual, "file_name_.txt")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("file__name.txt"), ShouldEqual, "file_name.txt")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-file-name-"), ShouldEqual, "file-name")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "file", "files"), ShouldEqual, "1 file")
		So(Quantify(2, "file", "files"), ShouldEqual, "2 files")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestReGroups(t *testing.T) {
	Convey("ReGroups", t, func() {
		re := regexp.MustCompile(`(?P<first>\w+)\s(?P<last>\w+)`)
		groups := ReGroups(re, "John Doe")
		So(groups["first"], ShouldEqual, "John")
		So(groups["last"], ShouldEqual, "Doe")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/file.txt"), ShouldEqual, "file")
		So(FileStem("file"), ShouldEqual, "file")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestTruncate(t *testing.T) {
	Convey("Truncate", t, func() {
		So(Truncate("héllo", 2), ShouldEqual, "hé")
		So(Truncate("abc", 10), ShouldEqual, "abc")
		So(Truncate("", 0), ShouldEqual, "")
	})
}

func TestRound(t *testing.T) {
	Convey("Round", t, func() {
		So(Round(1.23456, 2), ShouldEqual, 1.23)
		So(Round(2.5, 0), ShouldEqual, 3.0)
		So(Round(-1.005, 1), ShouldEqual, -1.0)
		So(Seconds(1500*time.Millisecond), ShouldEqual, 1.5)
		So(Millis(250), ShouldEqual, 250*time.Millisecond)
	})
}
