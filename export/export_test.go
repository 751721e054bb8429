package export

import (
	"database/sql"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/output"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

func document() *output.Document {
	return &output.Document{
		Metadata: output.Header{
			Timestamp:      "2026-05-01T00:00:00Z",
			ScraperVersion: "1.0.0",
			TotalCards:     3,
			Source:         "https://shoob.gg",
		},
		Cards: []card.Card{
			{
				ID: "aa11", URL: "https://shoob.gg/cards/info/aa11", Page: 1, Name: "Susuwatari",
				Tier: "3", CharacterSource: "Spirited Away", Series: "Spirited Away",
				ImageURL:        "https://cdn.shoob.gg/images/cards/3/aa11.png",
				HighResImageURL: mo.Some("https://cdn.shoob.gg/images/cards/3/aa11.png"),
				Description:     "Soot, sprites, and \"quotes\"",
				Metadata:        map[string]string{"tier_conflict": "image=3 breadcrumb=5"},
			},
			{
				ID: "bb22", URL: "https://shoob.gg/cards/info/bb22", Page: 2, Name: "Haku", Tier: "S",
				LastUpdated: mo.Some("2025-12-01"),
			},
			{Page: 2, Name: "Unknown Card", Tier: card.UnknownTier, Incomplete: true},
		},
	}
}

func TestParseFormat(t *testing.T) {
	Convey("Given format names", t, func() {
		f, err := ParseFormat("SQLite")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatSQLite)
		So(f.Extension(), ShouldEqual, "db")
		So(FormatCSV.Extension(), ShouldEqual, "csv")

		_, err = ParseFormat("xml")
		So(err, ShouldNotBeNil)
	})
}

func TestCSV(t *testing.T) {
	Convey("Given a document exported as CSV", t, func() {
		fs := afero.NewMemMapFs()
		So(Write(fs, FormatCSV, document(), "out/cards.csv"), ShouldBeNil)

		data, err := afero.ReadFile(fs, "out/cards.csv")
		So(err, ShouldBeNil)

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		So(err, ShouldBeNil)

		Convey("There is a header and one line per card", func() {
			So(records, ShouldHaveLength, 4)
			So(records[0], ShouldResemble, columns)
			So(records[1][0], ShouldEqual, "aa11")
			So(records[1][11], ShouldEqual, `Soot, sprites, and "quotes"`)
			So(records[2][12], ShouldEqual, "2025-12-01")
			So(records[3][14], ShouldEqual, "true")
		})
	})
}

func TestYAML(t *testing.T) {
	Convey("Given a document exported as YAML", t, func() {
		fs := afero.NewMemMapFs()
		So(Write(fs, FormatYAML, document(), "cards.yaml"), ShouldBeNil)

		data, err := afero.ReadFile(fs, "cards.yaml")
		So(err, ShouldBeNil)

		var parsed yamlDocument
		So(yaml.Unmarshal(data, &parsed), ShouldBeNil)

		Convey("Header and optional fields are kept", func() {
			So(parsed.Metadata.TotalCards, ShouldEqual, 3)
			So(parsed.Cards, ShouldHaveLength, 3)
			So(parsed.Cards[0].HighResImageURL, ShouldEqual, "https://cdn.shoob.gg/images/cards/3/aa11.png")
			So(parsed.Cards[0].Metadata["tier_conflict"], ShouldEqual, "image=3 breadcrumb=5")
			So(parsed.Cards[1].HighResImageURL, ShouldBeEmpty)
			So(string(data), ShouldContainSubstring, "card_id: aa11")
		})
	})
}

func TestSQLite(t *testing.T) {
	Convey("Given a document exported to SQLite", t, func() {
		path := filepath.Join(t.TempDir(), "cards.db")
		So(Write(nil, FormatSQLite, document(), path), ShouldBeNil)

		db, err := sql.Open("sqlite", path)
		So(err, ShouldBeNil)
		defer db.Close()

		Convey("Cards with an identifier are stored", func() {
			var n int
			So(db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&n), ShouldBeNil)
			So(n, ShouldEqual, 2)

			var hi sql.NullString
			So(db.QueryRow(`SELECT high_res_image_url FROM cards WHERE card_id = 'bb22'`).Scan(&hi), ShouldBeNil)
			So(hi.Valid, ShouldBeFalse)
		})

		Convey("The metadata bag becomes rows", func() {
			var v string
			So(db.QueryRow(`SELECT value FROM card_metadata WHERE card_id = 'aa11' AND key = 'tier_conflict'`).Scan(&v), ShouldBeNil)
			So(v, ShouldEqual, "image=3 breadcrumb=5")
		})

		Convey("Exporting again replaces the database", func() {
			So(Write(nil, FormatSQLite, document(), path), ShouldBeNil)

			again, err := sql.Open("sqlite", path)
			So(err, ShouldBeNil)
			defer again.Close()

			var runs int
			So(again.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs), ShouldBeNil)
			So(runs, ShouldEqual, 1)
		})
	})
}
