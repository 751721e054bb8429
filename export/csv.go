package export

import (
	"bytes"
	"encoding/csv"

	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/output"
	"github.com/spf13/afero"
)

func writeCSV(fsys afero.Fs, doc *output.Document, path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return err
	}
	for _, r := range rows(doc.Cards) {
		if err := w.Write(r.Values()); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return filesystem.WriteAtomic(fsys, path, buf.Bytes())
}
