package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/llehouerou/singalong/internal/db"
	"github.com/llehouerou/singalong/internal/library"
)

const trackColumns = `id, title, artist, album, year, duration, genre, path, cover_path, lyrics_path, timed_lyrics_path`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (*library.Track, error) {
	var (
		id            int64
		f             library.Fields
		lyrics, timed sql.NullString
	)
	err := row.Scan(&id, &f.Title, &f.Artist, &f.Album, &f.Year, &f.Duration, &f.Genre,
		&f.FilePath, &f.CoverPath, &lyrics, &timed)
	if err != nil {
		return nil, err
	}
	f.LyricsPath = dbutil.NullStringValue(lyrics)
	f.TimedLyricsPath = dbutil.NullStringValue(timed)
	t := library.NewTrack(f)
	t.SetID(id)
	return t, nil
}

// InsertTrack saves a new track and gives it the row id.
func (s *Store) InsertTrack(ctx context.Context, t *library.Track) error {
	f := t.Fields()
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (title, artist, album, year, duration, genre, path, cover_path,
			lyrics_path, timed_lyrics_path, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.Title, f.Artist, f.Album, f.Year, f.Duration, f.Genre, f.FilePath, f.CoverPath,
		dbutil.NullString(f.LyricsPath), dbutil.NullString(f.TimedLyricsPath), now, now)
	if err != nil {
		return fmt.Errorf("insert track %q: %w", f.FilePath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.SetID(id)
	return nil
}

// UpdateTrack writes the current fields of a saved track.
func (s *Store) UpdateTrack(ctx context.Context, t *library.Track) error {
	id := t.ID()
	if id == 0 {
		return fmt.Errorf("update track %q: %w", t.String(), ErrNotFound)
	}
	f := t.Fields()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tracks SET
			title = ?, artist = ?, album = ?, year = ?, duration = ?, genre = ?,
			path = ?, cover_path = ?, lyrics_path = ?, timed_lyrics_path = ?, updated_at = ?
		WHERE id = ?
	`, f.Title, f.Artist, f.Album, f.Year, f.Duration, f.Genre, f.FilePath, f.CoverPath,
		dbutil.NullString(f.LyricsPath), dbutil.NullString(f.TimedLyricsPath), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update track %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update track %d: %w", id, ErrNotFound)
	}
	return nil
}

// FindTrackByPath returns the track stored for a file path.
func (s *Store) FindTrackByPath(ctx context.Context, path string) (*library.Track, error) {
	t, err := scanTrack(s.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// LoadTracks returns every stored track in id order.
func (s *Store) LoadTracks(ctx context.Context) ([]*library.Track, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*library.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// DeleteTrack removes a track. Its playlist and queue entries go with it.
func (s *Store) DeleteTrack(ctx context.Context, id int64) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT DISTINCT playlist_id FROM playlist_tracks WHERE track_id = ?`, id)
		if err != nil {
			return err
		}
		var playlists []int64
		for rows.Next() {
			var pid int64
			if err := rows.Scan(&pid); err != nil {
				rows.Close()
				return err
			}
			playlists = append(playlists, pid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("delete track %d: %w", id, ErrNotFound)
		}

		for _, pid := range playlists {
			if err := compactPositions(ctx, tx, pid); err != nil {
				return err
			}
		}
		return compactQueue(ctx, tx)
	})
}

// trackIDByTitle resolves a track title to its id. Titles are not unique;
// the oldest track wins.
func trackIDByTitle(ctx context.Context, q querier, title string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM tracks WHERE title = ? ORDER BY id LIMIT 1`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("track %q: %w", title, ErrNotFound)
	}
	return id, err
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
