package state

import (
	"context"
	"fmt"
	"strings"
)

// SearchField names the track column a search matches against.
type SearchField int

const (
	SearchTitle SearchField = iota
	SearchArtist
	SearchAlbum
	SearchGenre
)

var searchFields = []string{"title", "artist", "album", "genre"}

func (f SearchField) String() string {
	if f < 0 || int(f) >= len(searchFields) {
		return "unknown"
	}
	return searchFields[f]
}

// ParseSearchField maps a column name to its SearchField.
func ParseSearchField(s string) (SearchField, error) {
	for i, name := range searchFields {
		if strings.EqualFold(s, name) {
			return SearchField(i), nil
		}
	}
	return 0, fmt.Errorf("unknown search field %q (want one of %s)", s, strings.Join(searchFields, ", "))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchTracks returns the ids of the tracks matching q, ordered by title.
// Titles match on their beginning; artist, album and genre match whole.
// Case is ignored for ASCII letters.
func (s *Store) SearchTracks(ctx context.Context, field SearchField, q string) ([]int64, error) {
	var (
		where string
		arg   string
	)
	switch field {
	case SearchTitle:
		where, arg = `title LIKE ? ESCAPE '\'`, likeEscaper.Replace(q)+"%"
	case SearchArtist, SearchAlbum, SearchGenre:
		where, arg = field.String()+` = ? COLLATE NOCASE`, q
	default:
		return nil, fmt.Errorf("search tracks: unknown field %d", field)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM tracks WHERE `+where+`
		ORDER BY title COLLATE NOCASE, id
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("search tracks by %s: %w", field, err)
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
