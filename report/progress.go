package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/cardsweep/cardsweep/harvest"
	"github.com/cardsweep/cardsweep/util"
)

// Progress redraws a single "Processing cards" line on a terminal.
type Progress struct {
	w     io.Writer
	width int
	last  int
}

// NewProgress returns a Progress writing to w, cut to width runes when width is positive.
func NewProgress(w io.Writer, width int) *Progress {
	return &Progress{w: w, width: width}
}

// Line formats the progress of e.
func Line(e harvest.Event) string {
	percent := 0.0
	if e.Total > 0 {
		percent = float64(e.Index) / float64(e.Total) * 100
	}
	return fmt.Sprintf("Processing cards: [%d/%d] (%.1f%%) page %d", e.Index, e.Total, percent, e.Page)
}

// Update redraws the line for e. It matches harvest.Deps.OnCard.
func (p *Progress) Update(e harvest.Event) {
	line := Line(e)
	if p.width > 0 {
		line = util.Truncate(line, p.width-1)
	}

	pad := ""
	if n := len([]rune(line)); n < p.last {
		pad = strings.Repeat(" ", p.last-n)
	}
	p.last = len([]rune(line))

	fmt.Fprintf(p.w, "\r%s%s", line, pad)
}

// Done erases the line.
func (p *Progress) Done() {
	if p.last == 0 {
		return
	}
	fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", p.last))
	p.last = 0
}
