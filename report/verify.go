package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/cardsweep/cardsweep/icon"
	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/progress"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Verification is the outcome of checking the two output artifacts against each other.
type Verification struct {
	DataExists     bool
	ProgressExists bool

	// Listing holds the output directory entries when an artifact is missing.
	Listing   []string
	DirExists bool

	CardCount      int
	CompletedPages int
	ProgressCards  int

	Err error
}

// OK reports whether both artifacts exist and parse.
func (v *Verification) OK() bool {
	return v.DataExists && v.ProgressExists && v.Err == nil
}

// Consistent reports whether both artifacts agree on the card count.
func (v *Verification) Consistent() bool {
	return v.CardCount == v.ProgressCards
}

// Verify checks the output document and progress file inside dir.
func Verify(fsys afero.Fs, dir, dataPath, progressPath string) *Verification {
	v := &Verification{
		DataExists:     lo.Must(afero.Exists(fsys, dataPath)),
		ProgressExists: lo.Must(afero.Exists(fsys, progressPath)),
	}

	if !v.DataExists || !v.ProgressExists {
		entries, err := afero.ReadDir(fsys, dir)
		v.DirExists = err == nil
		v.Listing = lo.Map(entries, func(e os.FileInfo, _ int) string { return e.Name() })
		return v
	}

	doc, err := output.Read(fsys, dataPath)
	if err != nil {
		v.Err = err
		return v
	}
	v.CardCount = doc.Metadata.TotalCards

	st, err := progress.Read(fsys, progressPath)
	if err != nil {
		v.Err = err
		return v
	}
	v.CompletedPages = len(st.ScrapedPages)
	v.ProgressCards = st.TotalCards

	return v
}

// WriteOutputs appends card_count and completed_pages lines to a CI step output file.
func (v *Verification) WriteOutputs(fsys afero.Fs, path string) error {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(f, "card_count=%d\ncompleted_pages=%d\n", v.CardCount, v.CompletedPages)
	return errors.Join(err, f.Close())
}

// Print writes the verification in the CLI layout.
func (v *Verification) Print(w io.Writer) {
	if !v.DataExists || !v.ProgressExists {
		fmt.Fprintf(w, "%s Required output files missing\n", icon.Get(icon.Fail))
		for _, a := range []struct {
			name   string
			exists bool
		}{{"data.json", v.DataExists}, {"process.json", v.ProgressExists}} {
			if a.exists {
				fmt.Fprintf(w, "%s %s exists\n", icon.Get(icon.Success), a.name)
			} else {
				fmt.Fprintf(w, "%s %s missing\n", icon.Get(icon.Fail), a.name)
			}
		}

		if !v.DirExists {
			fmt.Fprintf(w, "%s output directory doesn't exist\n", icon.Get(icon.Save))
			return
		}
		fmt.Fprintf(w, "%s Contents of output directory:\n", icon.Get(icon.Save))
		for _, name := range v.Listing {
			fmt.Fprintf(w, "   - %s\n", name)
		}
		return
	}

	if v.Err != nil {
		fmt.Fprintf(w, "%s Error reading files: %s\n", icon.Get(icon.Fail), v.Err)
		return
	}

	fmt.Fprintf(w, "%s Output files verified\n", icon.Get(icon.Success))
	fmt.Fprintf(w, "%s Total cards: %d\n", icon.Get(icon.Stats), v.CardCount)
	fmt.Fprintf(w, "%s Completed pages: %d\n", icon.Get(icon.Page), v.CompletedPages)
	fmt.Fprintf(w, "%s Cards in process file: %d\n", icon.Get(icon.Progress), v.ProgressCards)

	if !v.Consistent() {
		fmt.Fprintf(w, "%s Warning: Card count mismatch (data.json: %d, process.json: %d)\n",
			icon.Get(icon.Warn), v.CardCount, v.ProgressCards)
	}
}

// LastPage returns the highest completed page recorded at progressPath, 0 when there is none.
func LastPage(fsys afero.Fs, progressPath string) (int, error) {
	st, err := progress.Read(fsys, progressPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return st.LastCompleted(), nil
}
