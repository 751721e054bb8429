package export

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cardsweep/cardsweep/output"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	timestamp       TEXT NOT NULL,
	scraper_version TEXT NOT NULL,
	total_cards     INTEGER NOT NULL,
	source          TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cards (
	card_id              TEXT PRIMARY KEY,
	card_url             TEXT NOT NULL,
	page_num             INTEGER NOT NULL,
	name                 TEXT NOT NULL,
	tier                 TEXT NOT NULL,
	character_source     TEXT NOT NULL,
	series               TEXT NOT NULL,
	image_url            TEXT NOT NULL,
	high_res_image_url   TEXT,
	creator              TEXT NOT NULL,
	card_maker           TEXT NOT NULL,
	description          TEXT NOT NULL,
	last_updated         TEXT,
	extraction_timestamp TEXT NOT NULL,
	incomplete           INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS card_metadata (
	card_id TEXT NOT NULL REFERENCES cards(card_id) ON DELETE CASCADE,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (card_id, key)
);
CREATE INDEX IF NOT EXISTS cards_page ON cards(page_num);
CREATE INDEX IF NOT EXISTS cards_tier ON cards(tier);
`

// openDB opens path with the pragmas every export uses.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return db, nil
}

// writeSQLite replaces any database at path. Cards without an identifier are skipped
// since the identifier is the primary key.
func writeSQLite(doc *output.Document, path string) (err error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, db.Close()) }()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?)`,
		doc.Metadata.Timestamp, doc.Metadata.ScraperVersion, doc.Metadata.TotalCards, doc.Metadata.Source)
	if err != nil {
		return err
	}

	insertCard, err := tx.Prepare(`INSERT OR REPLACE INTO cards (` + strings.Join(columns, ", ") + `)
		VALUES (` + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + `)`)
	if err != nil {
		return err
	}
	defer insertCard.Close()

	insertMeta, err := tx.Prepare(`INSERT OR REPLACE INTO card_metadata (card_id, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertMeta.Close()

	for _, r := range rows(doc.Cards) {
		if r.ID == "" {
			continue
		}

		_, err = insertCard.Exec(
			r.ID, r.URL, r.Page, r.Name, r.Tier, r.CharacterSource, r.Series,
			r.ImageURL, nullable(r.HighResImageURL), r.Creator, r.CardMaker, r.Description,
			nullable(r.LastUpdated), r.ExtractedAt, r.Incomplete,
		)
		if err != nil {
			return fmt.Errorf("insert card %s: %w", r.ID, err)
		}

		for k, v := range r.Metadata {
			if _, err = insertMeta.Exec(r.ID, k, v); err != nil {
				return fmt.Errorf("insert metadata of %s: %w", r.ID, err)
			}
		}
	}

	return tx.Commit()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
