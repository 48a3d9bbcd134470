package lyrics

import "time"

// Cursor tracks the active line of a document as playback advances. While
// positions do not go backwards it scans forward from the previous line;
// after a backward jump it falls back to a binary search.
type Cursor struct {
	doc    *Document
	synced bool
	index  int
	last   time.Duration
}

// NewCursor creates a cursor over doc, which may be nil.
func NewCursor(doc *Document) *Cursor {
	return &Cursor{doc: doc, synced: doc.IsSynced(), index: -1}
}

// At returns the index of the active line at pos, or -1 when no line has
// started yet. Unsynced documents never have an active line.
func (c *Cursor) At(pos time.Duration) int {
	if !c.synced {
		return -1
	}
	if pos < c.last {
		c.index = c.doc.LineAt(pos)
	} else {
		lines := c.doc.Lines
		for c.index+1 < len(lines) && lines[c.index+1].Time <= pos {
			c.index++
		}
	}
	c.last = pos
	return c.index
}

// Index returns the last index reported by At.
func (c *Cursor) Index() int {
	return c.index
}

// Reset rewinds the cursor to before the first line.
func (c *Cursor) Reset() {
	c.index = -1
	c.last = 0
}
