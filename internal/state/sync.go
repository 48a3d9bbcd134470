package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/singalong/internal/changes"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playlist"
)

// SyncTracks pushes every dirty track of tracker to the database. Saved
// ids are forgotten; ids that failed stay dirty for the next sync. Ids no
// longer in lib have nothing to push and are forgotten too. It returns the
// number of tracks written.
func (s *Store) SyncTracks(ctx context.Context, tracker *changes.Tracker, lib *library.Library) (int, error) {
	var (
		synced int
		errs   []error
	)
	for _, id := range tracker.Pending() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		t, ok := lib.Get(id)
		if !ok {
			tracker.Forget(id)
			continue
		}
		if err := s.UpdateTrack(ctx, t); err != nil {
			errs = append(errs, err)
			continue
		}
		tracker.Forget(id)
		synced++
	}
	return synced, errors.Join(errs...)
}

// Restore loads the stored tracks, playlists and queue into empty in-memory
// collections. Call it before binding them so the load is not written back.
func (s *Store) Restore(ctx context.Context, lib *library.Library, m *playlist.Manager, q *playlist.Queue) error {
	tracks, err := s.LoadTracks(ctx)
	if err != nil {
		return fmt.Errorf("load tracks: %w", err)
	}
	for _, t := range tracks {
		lib.Add(t)
	}

	records, err := s.LoadPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("load playlists: %w", err)
	}
	for _, r := range records {
		p, err := m.Create(r.Title)
		if err != nil {
			return fmt.Errorf("restore playlist %q: %w", r.Title, err)
		}
		for _, id := range r.TrackIDs {
			if t, ok := lib.Get(id); ok {
				p.Add(t)
			}
		}
	}

	ids, err := s.LoadQueue(ctx)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}
	for _, id := range ids {
		if t, ok := lib.Get(id); ok {
			q.Add(t)
		}
	}
	return nil
}
