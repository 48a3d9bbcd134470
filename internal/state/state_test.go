package state

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/llehouerou/singalong/internal/changes"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playlist"
)

// setupTestStore opens a store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTrack(t *testing.T, s *Store, title string) *library.Track {
	t.Helper()
	tr := library.NewTrack(library.Fields{
		Title:    title,
		Artist:   "Artist",
		Duration: 180,
		FilePath: "/music/" + title + ".mp3",
	})
	if err := s.InsertTrack(t.Context(), tr); err != nil {
		t.Fatalf("InsertTrack(%q) failed: %v", title, err)
	}
	return tr
}

func TestTracks_CRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := t.Context()

	tr := insertTrack(t, s, "One")
	if tr.ID() == 0 {
		t.Fatal("InsertTrack did not set the id")
	}

	tr.SetAlbum("Album")
	tr.SetTimedLyricsPath("/lyrics/One.lrc")
	if err := s.UpdateTrack(ctx, tr); err != nil {
		t.Fatalf("UpdateTrack failed: %v", err)
	}

	got, err := s.FindTrackByPath(ctx, "/music/One.mp3")
	if err != nil {
		t.Fatalf("FindTrackByPath failed: %v", err)
	}
	if got.ID() != tr.ID() || got.Fields() != tr.Fields() {
		t.Errorf("FindTrackByPath = %d %+v, want %d %+v", got.ID(), got.Fields(), tr.ID(), tr.Fields())
	}

	if _, err := s.FindTrackByPath(ctx, "/nowhere.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindTrackByPath(missing) error = %v, want ErrNotFound", err)
	}

	insertTrack(t, s, "Two")
	all, err := s.LoadTracks(ctx)
	if err != nil {
		t.Fatalf("LoadTracks failed: %v", err)
	}
	if len(all) != 2 || all[0].Title() != "One" || all[1].Title() != "Two" {
		t.Errorf("LoadTracks = %v, want [One Two]", all)
	}

	if err := s.DeleteTrack(ctx, tr.ID()); err != nil {
		t.Fatalf("DeleteTrack failed: %v", err)
	}
	if err := s.DeleteTrack(ctx, tr.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteTrack error = %v, want ErrNotFound", err)
	}
}

func TestInsertTrack_DuplicatePath(t *testing.T) {
	s := setupTestStore(t)
	insertTrack(t, s, "Dup")

	dup := library.NewTrack(library.Fields{Title: "Other", FilePath: "/music/Dup.mp3"})
	if err := s.InsertTrack(t.Context(), dup); err == nil {
		t.Error("InsertTrack with a duplicate path succeeded")
	}
	if dup.ID() != 0 {
		t.Errorf("failed insert set id %d", dup.ID())
	}
}

func TestUpdateTrack_Unsaved(t *testing.T) {
	s := setupTestStore(t)
	tr := library.NewTrack(library.Fields{Title: "Unsaved"})
	if err := s.UpdateTrack(t.Context(), tr); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTrack(unsaved) error = %v, want ErrNotFound", err)
	}
}

func playlistTitles(t *testing.T, s *Store, title string) []int64 {
	t.Helper()
	records, err := s.LoadPlaylists(t.Context())
	if err != nil {
		t.Fatalf("LoadPlaylists failed: %v", err)
	}
	for _, r := range records {
		if r.Title == title {
			return r.TrackIDs
		}
	}
	t.Fatalf("playlist %q not stored", title)
	return nil
}

func TestPlaylists_Membership(t *testing.T) {
	s := setupTestStore(t)
	ctx := t.Context()
	a, b, c := insertTrack(t, s, "A"), insertTrack(t, s, "B"), insertTrack(t, s, "C")

	if err := s.InsertPlaylist(ctx, "Mix"); err != nil {
		t.Fatalf("InsertPlaylist failed: %v", err)
	}
	if err := s.InsertPlaylist(ctx, "Mix"); err == nil {
		t.Error("InsertPlaylist with a taken title succeeded")
	}
	for _, title := range []string{"A", "B", "C", "A"} {
		if err := s.AddTrackToPlaylist(ctx, "Mix", title); err != nil {
			t.Fatalf("AddTrackToPlaylist(%q) failed: %v", title, err)
		}
	}
	if got := playlistTitles(t, s, "Mix"); !slices.Equal(got, []int64{a.ID(), b.ID(), c.ID()}) {
		t.Errorf("after adds = %v, want A B C once each", got)
	}

	if err := s.MovePlaylistTrack(ctx, "Mix", 0, 2); err != nil {
		t.Fatalf("MovePlaylistTrack failed: %v", err)
	}
	if got := playlistTitles(t, s, "Mix"); !slices.Equal(got, []int64{b.ID(), c.ID(), a.ID()}) {
		t.Errorf("after move = %v, want B C A", got)
	}
	if err := s.MovePlaylistTrack(ctx, "Mix", 0, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("out-of-range move error = %v, want ErrNotFound", err)
	}

	if err := s.RemoveTrackFromPlaylist(ctx, "Mix", "C"); err != nil {
		t.Fatalf("RemoveTrackFromPlaylist failed: %v", err)
	}
	if err := s.AddTrackToPlaylist(ctx, "Mix", "C"); err != nil {
		t.Fatalf("re-adding C failed: %v", err)
	}
	if got := playlistTitles(t, s, "Mix"); !slices.Equal(got, []int64{b.ID(), a.ID(), c.ID()}) {
		t.Errorf("after remove and re-add = %v, want B A C", got)
	}

	if err := s.AddTrackToPlaylist(ctx, "Mix", "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("adding an unknown track error = %v, want ErrNotFound", err)
	}
	if err := s.AddTrackToPlaylist(ctx, "Nope", "A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("adding to an unknown playlist error = %v, want ErrNotFound", err)
	}

	if err := s.ClearPlaylist(ctx, "Mix"); err != nil {
		t.Fatalf("ClearPlaylist failed: %v", err)
	}
	if got := playlistTitles(t, s, "Mix"); len(got) != 0 {
		t.Errorf("after clear = %v, want empty", got)
	}
}

func TestPlaylists_RenameAndDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := t.Context()
	insertTrack(t, s, "A")
	if err := s.InsertPlaylist(ctx, "Old"); err != nil {
		t.Fatalf("InsertPlaylist failed: %v", err)
	}
	if err := s.AddTrackToPlaylist(ctx, "Old", "A"); err != nil {
		t.Fatalf("AddTrackToPlaylist failed: %v", err)
	}

	if err := s.RenamePlaylist(ctx, "Old", "New"); err != nil {
		t.Fatalf("RenamePlaylist failed: %v", err)
	}
	if got := playlistTitles(t, s, "New"); len(got) != 1 {
		t.Errorf("renamed playlist tracks = %v, want 1", got)
	}

	if err := s.DeletePlaylist(ctx, "New"); err != nil {
		t.Fatalf("DeletePlaylist failed: %v", err)
	}
	if err := s.DeletePlaylist(ctx, "New"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePlaylist error = %v, want ErrNotFound", err)
	}
	records, err := s.LoadPlaylists(ctx)
	if err != nil {
		t.Fatalf("LoadPlaylists failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadPlaylists = %v, want none", records)
	}
}

func TestQueue_SaveLoadAndTrackDeletion(t *testing.T) {
	s := setupTestStore(t)
	ctx := t.Context()
	a, b, c := insertTrack(t, s, "A"), insertTrack(t, s, "B"), insertTrack(t, s, "C")
	if err := s.InsertPlaylist(ctx, "P"); err != nil {
		t.Fatalf("InsertPlaylist failed: %v", err)
	}
	for _, title := range []string{"A", "B", "C"} {
		if err := s.AddTrackToPlaylist(ctx, "P", title); err != nil {
			t.Fatalf("AddTrackToPlaylist failed: %v", err)
		}
	}

	if err := s.SaveQueue(ctx, []int64{c.ID(), a.ID(), b.ID()}); err != nil {
		t.Fatalf("SaveQueue failed: %v", err)
	}
	if err := s.DeleteTrack(ctx, a.ID()); err != nil {
		t.Fatalf("DeleteTrack failed: %v", err)
	}

	ids, err := s.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("LoadQueue failed: %v", err)
	}
	if !slices.Equal(ids, []int64{c.ID(), b.ID()}) {
		t.Errorf("LoadQueue = %v, want [C B]", ids)
	}
	if got := playlistTitles(t, s, "P"); !slices.Equal(got, []int64{b.ID(), c.ID()}) {
		t.Errorf("playlist after delete = %v, want [B C]", got)
	}
	// Positions were compacted, so appending lands at the end.
	d := insertTrack(t, s, "D")
	if err := s.AddTrackToPlaylist(ctx, "P", "D"); err != nil {
		t.Fatalf("AddTrackToPlaylist failed: %v", err)
	}
	if got := playlistTitles(t, s, "P"); !slices.Equal(got, []int64{b.ID(), c.ID(), d.ID()}) {
		t.Errorf("playlist after append = %v, want [B C D]", got)
	}
}

func TestSyncTracks_KeepsFailuresDirty(t *testing.T) {
	s := setupTestStore(t)
	ctx := t.Context()
	lib := library.New()
	tracker := changes.New()
	tracker.Watch(lib)

	stored := insertTrack(t, s, "Stored")
	lib.Add(stored)
	ghost := library.NewTrack(library.Fields{Title: "Ghost", FilePath: "/music/ghost.mp3"})
	ghost.SetID(999)
	lib.Add(ghost)

	stored.SetTitle("Stored (remastered)")
	ghost.SetTitle("Ghost (live)")
	tracker.Invalidate(12345) // not in the library

	n, err := s.SyncTracks(ctx, tracker, lib)
	if err == nil {
		t.Error("SyncTracks reported no error for a track missing from the database")
	}
	if n != 1 {
		t.Errorf("SyncTracks synced %d, want 1", n)
	}
	if got := tracker.Pending(); !slices.Equal(got, []int64{999}) {
		t.Errorf("Pending() after sync = %v, want [999]", got)
	}

	got, err := s.FindTrackByPath(ctx, stored.FilePath())
	if err != nil {
		t.Fatalf("FindTrackByPath failed: %v", err)
	}
	if got.Title() != "Stored (remastered)" {
		t.Errorf("stored title = %q, want the edited title", got.Title())
	}
}

func TestBinder_PersistsCollectionsAndRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bind.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctx := t.Context()
	a, b := insertTrack(t, s, "A"), insertTrack(t, s, "B")

	m := playlist.NewManager()
	q := playlist.NewQueue()
	binder := NewBinder(ctx, s, nil)
	binder.BindManager(m)
	binder.BindQueue(q)

	p, err := m.Create("Road")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	p.Add(a)
	p.Add(b)
	p.Reorder(1, 0)
	if err := m.Rename("Road", "Trip"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	p.Remove(a)
	p.Add(a)
	q.Add(b)
	q.Add(a)
	q.Remove(b)

	binder.Close()
	p.Clear() // no longer persisted
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	lib := library.New()
	m2 := playlist.NewManager()
	q2 := playlist.NewQueue()
	if err := s.Restore(ctx, lib, m2, q2); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if lib.Len() != 2 {
		t.Errorf("restored %d tracks, want 2", lib.Len())
	}
	trip, ok := m2.Get("Trip")
	if !ok {
		t.Fatalf("restored playlists = %v, want Trip", m2.Titles())
	}
	if got := titles(trip.Tracks()); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("Trip = %v, want [B A]", got)
	}
	if got := titles(q2.Tracks()); !slices.Equal(got, []string{"A"}) {
		t.Errorf("queue = %v, want [A]", got)
	}
}

func titles(ts []*library.Track) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title()
	}
	return out
}
