// Package playlist holds the ordered track collections the sequencers walk:
// the play queue and user playlists.
package playlist

import (
	"slices"
	"sync"

	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
)

// ChangeKind identifies a collection change.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Cleared
	Reordered
)

// String returns the kind name.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case Cleared:
		return "Cleared"
	case Reordered:
		return "Reordered"
	default:
		return "Unknown"
	}
}

// Change is published on a collection's bus after every mutation.
// From and To are only meaningful for Reordered; Index is the position the
// track was added at or removed from.
type Change struct {
	Kind  ChangeKind
	Title string
	Track *library.Track
	Index int
	From  int
	To    int
}

// Collection is an ordered list of tracks in which a track appears at most
// once. Two tracks are the same when library.Same reports so.
type Collection struct {
	mu      sync.RWMutex
	title   string
	tracks  []*library.Track
	version uint64
	bus     *event.Bus[Change]
}

func newCollection(title string) *Collection {
	return &Collection{
		title: title,
		bus:   event.NewBus[Change](),
	}
}

// Title returns the collection title.
func (c *Collection) Title() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.title
}

// Events returns the bus carrying this collection's changes.
func (c *Collection) Events() *event.Bus[Change] {
	return c.bus
}

// Add appends t unless it is already present. Reports whether it was added.
func (c *Collection) Add(t *library.Track) bool {
	if t == nil {
		return false
	}
	c.mu.Lock()
	if c.indexLocked(t) >= 0 {
		c.mu.Unlock()
		return false
	}
	c.tracks = append(c.tracks, t)
	idx := len(c.tracks) - 1
	c.version++
	c.mu.Unlock()

	c.bus.Publish(Change{Kind: Added, Title: c.Title(), Track: t, Index: idx})
	return true
}

// Remove deletes t by identity. Reports whether it was present.
func (c *Collection) Remove(t *library.Track) bool {
	c.mu.Lock()
	idx := c.indexLocked(t)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	removed := c.tracks[idx]
	c.tracks = slices.Delete(c.tracks, idx, idx+1)
	c.version++
	c.mu.Unlock()

	c.bus.Publish(Change{Kind: Removed, Title: c.Title(), Track: removed, Index: idx})
	return true
}

// Clear removes every track. Clearing an empty collection publishes nothing.
func (c *Collection) Clear() {
	c.mu.Lock()
	if len(c.tracks) == 0 {
		c.mu.Unlock()
		return
	}
	c.tracks = nil
	c.version++
	c.mu.Unlock()

	c.bus.Publish(Change{Kind: Cleared, Title: c.Title()})
}

// Tracks returns a copy of the tracks in stored order.
func (c *Collection) Tracks() []*library.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tracks)
}

// Track returns the track at index, or nil if out of bounds.
func (c *Collection) Track(index int) *library.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.tracks) {
		return nil
	}
	return c.tracks[index]
}

// Index returns the position of t, or -1.
func (c *Collection) Index(t *library.Track) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexLocked(t)
}

// Contains reports whether t is in the collection.
func (c *Collection) Contains(t *library.Track) bool {
	return c.Index(t) >= 0
}

// Len returns the number of tracks.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// Version changes whenever the track set changes. Reordering keeps the set
// and does not bump it.
func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Collection) indexLocked(t *library.Track) int {
	return slices.IndexFunc(c.tracks, func(x *library.Track) bool {
		return library.Same(x, t)
	})
}
