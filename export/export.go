// Package export converts the output document into other formats.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cardsweep/cardsweep/card"
	"github.com/cardsweep/cardsweep/output"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Format is an export target.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// Formats lists every supported format.
func Formats() []string {
	return []string{string(FormatCSV), string(FormatYAML), string(FormatSQLite)}
}

// ParseFormat validates name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(name))
	if !lo.Contains(Formats(), string(f)) {
		return "", fmt.Errorf("unknown export format %q, expected one of %s", name, strings.Join(Formats(), ", "))
	}
	return f, nil
}

// Extension is the file extension for f, without a dot.
func (f Format) Extension() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// Write exports doc to path. CSV and YAML go through fsys;
// SQLite databases are opened by path on the host filesystem.
func Write(fsys afero.Fs, f Format, doc *output.Document, path string) error {
	switch f {
	case FormatCSV:
		return writeCSV(fsys, doc, path)
	case FormatYAML:
		return writeYAML(fsys, doc, path)
	case FormatSQLite:
		return writeSQLite(doc, path)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// Row is a card flattened into plain strings.
type Row struct {
	ID              string            `yaml:"card_id"`
	URL             string            `yaml:"card_url"`
	Page            int               `yaml:"page_num"`
	Name            string            `yaml:"name"`
	Tier            string            `yaml:"tier"`
	CharacterSource string            `yaml:"character_source"`
	Series          string            `yaml:"series"`
	ImageURL        string            `yaml:"image_url"`
	HighResImageURL string            `yaml:"high_res_image_url,omitempty"`
	Creator         string            `yaml:"creator"`
	CardMaker       string            `yaml:"card_maker"`
	Description     string            `yaml:"description"`
	LastUpdated     string            `yaml:"last_updated,omitempty"`
	ExtractedAt     string            `yaml:"extraction_timestamp"`
	Metadata        map[string]string `yaml:"metadata,omitempty"`
	Incomplete      bool              `yaml:"incomplete"`
}

// columns is the column order shared by CSV and SQLite.
var columns = []string{
	"card_id", "card_url", "page_num", "name", "tier", "character_source", "series",
	"image_url", "high_res_image_url", "creator", "card_maker", "description",
	"last_updated", "extraction_timestamp", "incomplete",
}

// NewRow flattens c.
func NewRow(c card.Card) Row {
	return Row{
		ID:              c.ID,
		URL:             c.URL,
		Page:            c.Page,
		Name:            c.Name,
		Tier:            c.Tier,
		CharacterSource: c.CharacterSource,
		Series:          c.Series,
		ImageURL:        c.ImageURL,
		HighResImageURL: c.HighResImageURL.OrEmpty(),
		Creator:         c.Creator,
		CardMaker:       c.CardMaker,
		Description:     c.Description,
		LastUpdated:     c.LastUpdated.OrEmpty(),
		ExtractedAt:     c.ExtractedAt,
		Metadata:        c.Metadata,
		Incomplete:      c.Incomplete,
	}
}

// Values returns the row in column order.
func (r Row) Values() []string {
	return []string{
		r.ID, r.URL, strconv.Itoa(r.Page), r.Name, r.Tier, r.CharacterSource, r.Series,
		r.ImageURL, r.HighResImageURL, r.Creator, r.CardMaker, r.Description,
		r.LastUpdated, r.ExtractedAt, strconv.FormatBool(r.Incomplete),
	}
}

func rows(cards []card.Card) []Row {
	return lo.Map(cards, func(c card.Card, _ int) Row { return NewRow(c) })
}
