package lyrics

import (
	"sync"
	"time"

	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
)

// LineChange announces a new highlighted line. Index is -1 when no line is
// highlighted.
type LineChange struct {
	Track *library.Track
	Index int
	Line  Line
}

// Synchronizer follows playback over the current track's document and
// publishes a LineChange whenever the highlighted line moves.
type Synchronizer struct {
	mu     sync.Mutex
	track  *library.Track
	doc    *Document
	cursor *Cursor
	index  int
	bus    *event.Bus[LineChange]
}

// NewSynchronizer creates a synchronizer with no document.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{
		doc:    &Document{},
		cursor: NewCursor(nil),
		index:  -1,
		bus:    event.NewBus[LineChange](),
	}
}

// Events returns the bus carrying highlighted-line changes.
func (s *Synchronizer) Events() *event.Bus[LineChange] {
	return s.bus
}

// SetDocument replaces the whole document, for a new track or a finished
// lookup. doc may be nil.
func (s *Synchronizer) SetDocument(t *library.Track, doc *Document) {
	if doc == nil {
		doc = &Document{}
	}
	s.mu.Lock()
	s.track = t
	s.doc = doc
	s.cursor = NewCursor(doc)
	had := s.index
	s.index = -1
	s.mu.Unlock()

	if had != -1 {
		s.bus.Publish(LineChange{Track: t, Index: -1})
	}
}

// Clear drops the document.
func (s *Synchronizer) Clear() {
	s.SetDocument(nil, nil)
}

// Track returns the track whose document is held, or nil.
func (s *Synchronizer) Track() *library.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// Document returns the current document. It is never nil.
func (s *Synchronizer) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Index returns the highlighted line, or -1.
func (s *Synchronizer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Update moves the highlight to the line active at elapsed. It returns the
// active index and whether it changed.
func (s *Synchronizer) Update(elapsed time.Duration) (int, bool) {
	s.mu.Lock()
	idx := s.cursor.At(elapsed)
	changed := idx != s.index
	s.index = idx
	ev := LineChange{Track: s.track, Index: idx}
	if idx >= 0 {
		ev.Line = s.doc.Lines[idx]
	}
	s.mu.Unlock()

	if changed {
		s.bus.Publish(ev)
	}
	return idx, changed
}

// Next returns the line after the highlighted one, if any. Before the first
// line starts it returns the first line.
func (s *Synchronizer) Next() (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.doc.IsSynced() {
		return Line{}, false
	}
	i := s.index + 1
	if i >= len(s.doc.Lines) {
		return Line{}, false
	}
	return s.doc.Lines[i], true
}
