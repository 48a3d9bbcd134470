package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	dbutil "github.com/llehouerou/singalong/internal/db"
)

// PlaylistRecord is a stored playlist: its title and track ids in order.
type PlaylistRecord struct {
	Title    string
	TrackIDs []int64
}

type execQuerier interface {
	querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// InsertPlaylist creates an empty playlist.
func (s *Store) InsertPlaylist(ctx context.Context, title string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playlists (title, created_at) VALUES (?, ?)
	`, title, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert playlist %q: %w", title, err)
	}
	return nil
}

// DeletePlaylist removes a playlist and its entries.
func (s *Store) DeletePlaylist(ctx context.Context, title string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete playlist %q: %w", title, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("playlist %q: %w", title, ErrNotFound)
	}
	return nil
}

// RenamePlaylist changes a playlist's title.
func (s *Store) RenamePlaylist(ctx context.Context, oldTitle, newTitle string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE playlists SET title = ? WHERE title = ?`, newTitle, oldTitle)
	if err != nil {
		return fmt.Errorf("rename playlist %q: %w", oldTitle, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("playlist %q: %w", oldTitle, ErrNotFound)
	}
	return nil
}

// AddTrackToPlaylist appends the track with the given title. A track
// already in the playlist is left where it is.
func (s *Store) AddTrackToPlaylist(ctx context.Context, playlist, trackTitle string) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pid, err := playlistID(ctx, tx, playlist)
		if err != nil {
			return err
		}
		tid, err := trackIDByTitle(ctx, tx, trackTitle)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO playlist_tracks (playlist_id, position, track_id)
			VALUES (?, (SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?), ?)
		`, pid, pid, tid)
		return err
	})
}

// RemoveTrackFromPlaylist removes the track with the given title and closes
// the gap it leaves.
func (s *Store) RemoveTrackFromPlaylist(ctx context.Context, playlist, trackTitle string) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pid, err := playlistID(ctx, tx, playlist)
		if err != nil {
			return err
		}
		tid, err := trackIDByTitle(ctx, tx, trackTitle)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?
		`, pid, tid)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("track %q in playlist %q: %w", trackTitle, playlist, ErrNotFound)
		}
		return compactPositions(ctx, tx, pid)
	})
}

// ClearPlaylist removes every track from a playlist.
func (s *Store) ClearPlaylist(ctx context.Context, playlist string) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pid, err := playlistID(ctx, tx, playlist)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, pid)
		return err
	})
}

// MovePlaylistTrack moves the track at position from to position to.
func (s *Store) MovePlaylistTrack(ctx context.Context, playlist string, from, to int) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pid, err := playlistID(ctx, tx, playlist)
		if err != nil {
			return err
		}
		ids, err := playlistTrackIDs(ctx, tx, pid)
		if err != nil {
			return err
		}
		if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
			return fmt.Errorf("move %d to %d in playlist %q of %d tracks: %w", from, to, playlist, len(ids), ErrNotFound)
		}
		id := ids[from]
		ids = slices.Delete(ids, from, from+1)
		ids = slices.Insert(ids, to, id)
		return writePositions(ctx, tx, pid, ids)
	})
}

// LoadPlaylists returns every playlist sorted by title.
func (s *Store) LoadPlaylists(ctx context.Context) ([]PlaylistRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.title, pt.track_id
		FROM playlists p
		LEFT JOIN playlist_tracks pt ON pt.playlist_id = p.id
		ORDER BY p.title, pt.position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaylistRecord
	for rows.Next() {
		var title string
		var tid sql.NullInt64
		if err := rows.Scan(&title, &tid); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Title != title {
			out = append(out, PlaylistRecord{Title: title})
		}
		if tid.Valid {
			last := &out[len(out)-1]
			last.TrackIDs = append(last.TrackIDs, tid.Int64)
		}
	}
	return out, rows.Err()
}

func playlistID(ctx context.Context, q querier, title string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM playlists WHERE title = ?`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("playlist %q: %w", title, ErrNotFound)
	}
	return id, err
}

func playlistTrackIDs(ctx context.Context, q execQuerier, pid int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position
	`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// writePositions rewrites a playlist's entries as ids, positions 0..n-1.
func writePositions(ctx context.Context, q execQuerier, pid int64, ids []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, pid); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)
		`, pid, i, id); err != nil {
			return err
		}
	}
	return nil
}

func compactPositions(ctx context.Context, q execQuerier, pid int64) error {
	ids, err := playlistTrackIDs(ctx, q, pid)
	if err != nil {
		return err
	}
	return writePositions(ctx, q, pid, ids)
}
