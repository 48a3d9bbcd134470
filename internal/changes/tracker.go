// Package changes records which tracks were edited since they were last
// saved.
package changes

import (
	"slices"
	"sync"

	"github.com/llehouerou/singalong/internal/library"
)

// Tracker is the set of track ids waiting to be persisted. Reading it never
// clears it; ids leave only through Clear or Forget.
type Tracker struct {
	mu    sync.Mutex
	dirty map[int64]struct{}
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{dirty: make(map[int64]struct{})}
}

// Watch marks every track of lib that reports a change. The returned
// function stops watching.
func (t *Tracker) Watch(lib *library.Library) (cancel func()) {
	return lib.Events().Subscribe(func(e library.Event) {
		if e.Kind == library.TrackChanged && e.Track != nil {
			t.Invalidate(e.Track.ID())
		}
	})
}

// Invalidate marks id dirty. Unsaved tracks (id 0) have nothing to update
// and are ignored.
func (t *Tracker) Invalidate(id int64) {
	if id == 0 {
		return
	}
	t.mu.Lock()
	t.dirty[id] = struct{}{}
	t.mu.Unlock()
}

// Pending returns the dirty ids in ascending order.
func (t *Tracker) Pending() []int64 {
	t.mu.Lock()
	ids := make([]int64, 0, len(t.dirty))
	for id := range t.dirty {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Contains reports whether id is dirty.
func (t *Tracker) Contains(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.dirty[id]
	return ok
}

// Len returns the number of dirty ids.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dirty)
}

// Clear empties the set.
func (t *Tracker) Clear() {
	t.mu.Lock()
	clear(t.dirty)
	t.mu.Unlock()
}

// Forget removes the given ids, typically those just saved.
func (t *Tracker) Forget(ids ...int64) {
	t.mu.Lock()
	for _, id := range ids {
		delete(t.dirty, id)
	}
	t.mu.Unlock()
}
