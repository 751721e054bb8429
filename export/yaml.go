package export

import (
	"bytes"

	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/output"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type yamlHeader struct {
	Timestamp      string `yaml:"timestamp"`
	ScraperVersion string `yaml:"scraper_version"`
	TotalCards     int    `yaml:"total_cards"`
	Source         string `yaml:"source"`
}

type yamlDocument struct {
	Metadata yamlHeader `yaml:"metadata"`
	Cards    []Row      `yaml:"cards"`
}

func writeYAML(fsys afero.Fs, doc *output.Document, path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err := enc.Encode(yamlDocument{
		Metadata: yamlHeader{
			Timestamp:      doc.Metadata.Timestamp,
			ScraperVersion: doc.Metadata.ScraperVersion,
			TotalCards:     doc.Metadata.TotalCards,
			Source:         doc.Metadata.Source,
		},
		Cards: rows(doc.Cards),
	})
	if err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	return filesystem.WriteAtomic(fsys, path, buf.Bytes())
}
