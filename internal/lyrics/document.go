// Package lyrics parses, stores, resolves and follows time-synchronised
// lyrics.
package lyrics

import (
	"sort"
	"time"
)

// Line represents a single lyric line. Untimed lines sit at zero.
type Line struct {
	Time time.Duration
	Text string
}

// Millis returns the line's timestamp in milliseconds.
func (l Line) Millis() int64 {
	return l.Time.Milliseconds()
}

// Document is a whole lyrics sheet, lines in ascending time order, with the
// optional header metadata of a timed file.
type Document struct {
	Lines  []Line
	Title  string
	Artist string
	Album  string
	Length time.Duration
}

// IsEmpty reports whether the document has no lines.
func (d *Document) IsEmpty() bool {
	return d == nil || len(d.Lines) == 0
}

// IsSynced returns true if any line carries a non-zero timestamp.
func (d *Document) IsSynced() bool {
	if d == nil {
		return false
	}
	for _, line := range d.Lines {
		if line.Time > 0 {
			return true
		}
	}
	return false
}

// LineAt returns the index of the last line starting at or before pos.
// Returns -1 if no line is active yet or if the lyrics are unsynced.
func (d *Document) LineAt(pos time.Duration) int {
	if !d.IsSynced() {
		return -1
	}
	return sort.Search(len(d.Lines), func(i int) bool {
		return d.Lines[i].Time > pos
	}) - 1
}
