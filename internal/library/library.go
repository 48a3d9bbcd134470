// Package library holds the in-memory track catalog and track metadata.
package library

import (
	"slices"
	"sync"

	"github.com/llehouerou/singalong/internal/event"
)

// EventKind identifies a library event.
type EventKind int

const (
	TrackAdded EventKind = iota
	TrackRemoved
	TrackChanged
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case TrackAdded:
		return "Added"
	case TrackRemoved:
		return "Removed"
	case TrackChanged:
		return "Changed"
	default:
		return "Unknown"
	}
}

// Event is published on the library bus.
type Event struct {
	Kind  EventKind
	Track *Track
}

// Library maps track ids to tracks and relays their change events.
type Library struct {
	mu     sync.RWMutex
	tracks map[int64]*Track
	bus    *event.Bus[Event]
}

// New creates an empty library.
func New() *Library {
	return &Library{
		tracks: make(map[int64]*Track),
		bus:    event.NewBus[Event](),
	}
}

// Events returns the bus carrying add, remove and change events.
func (l *Library) Events() *event.Bus[Event] {
	return l.bus
}

// Add registers t under its id, replacing any track with the same id.
// Unsaved tracks are attached to the bus but not indexed.
func (l *Library) Add(t *Track) {
	t.attach(l.bus)
	if id := t.ID(); id != 0 {
		l.mu.Lock()
		l.tracks[id] = t
		l.mu.Unlock()
	}
	l.bus.Publish(Event{Kind: TrackAdded, Track: t})
}

// Get returns the track with the given id.
func (l *Library) Get(id int64) (*Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tracks[id]
	return t, ok
}

// Remove drops the track with the given id and detaches it from the bus.
func (l *Library) Remove(id int64) bool {
	l.mu.Lock()
	t, ok := l.tracks[id]
	delete(l.tracks, id)
	l.mu.Unlock()
	if !ok {
		return false
	}
	t.attach(nil)
	l.bus.Publish(Event{Kind: TrackRemoved, Track: t})
	return true
}

// Tracks returns all indexed tracks ordered by id.
func (l *Library) Tracks() []*Track {
	l.mu.RLock()
	ids := make([]int64, 0, len(l.tracks))
	for id := range l.tracks {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	slices.Sort(ids)

	out := make([]*Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := l.Get(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// FindByPath returns the first indexed track whose file path is path.
func (l *Library) FindByPath(path string) (*Track, bool) {
	for _, t := range l.Tracks() {
		if t.FilePath() == path {
			return t, true
		}
	}
	return nil, false
}

// Len returns the number of indexed tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}
