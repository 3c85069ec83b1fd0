package editor

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats summarizes the document for a status line.
type Stats struct {
	Runes     int
	Graphemes int
	Words     int
	Lines     int
	// MaxWidth is the widest line in terminal cells.
	MaxWidth int
}

func (d *Document) Stats() Stats {
	text := d.buf.Snapshot()
	st := Stats{
		Runes:     d.buf.Len(),
		Graphemes: uniseg.GraphemeClusterCount(text),
		Words:     len(strings.Fields(text)),
	}
	lines := strings.Split(text, "\n")
	st.Lines = len(lines)
	for _, line := range lines {
		if w := runewidth.StringWidth(strings.TrimSuffix(line, "\r")); w > st.MaxWidth {
			st.MaxWidth = w
		}
	}
	return st
}

// Changes diffs the last loaded-or-saved content against the current text.
// It returns nil when the document is clean.
func (d *Document) Changes() []diffmatchpatch.Diff {
	if !d.buf.Dirty() {
		return nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(d.buf.CleanSnapshot(), d.buf.Snapshot(), false)
	return dmp.DiffCleanupSemantic(diffs)
}
