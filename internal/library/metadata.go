package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// DurationFunc reports the playable length of an audio file.
type DurationFunc func(path string) (time.Duration, error)

// ReadFields extracts tag metadata from an audio file. Files without tags
// still yield a title derived from the file name. measure may be nil.
func ReadFields(path string, measure DurationFunc) (Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fields{}, err
	}
	defer f.Close()

	fields := Fields{FilePath: path}

	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		fields.Title = m.Title()
		fields.Artist = m.Artist()
		if fields.Artist == "" {
			fields.Artist = m.AlbumArtist()
		}
		fields.Album = m.Album()
		fields.Genre = m.Genre()
		if m.Year() > 0 {
			fields.Year = strconv.Itoa(m.Year())
		}
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		return Fields{}, fmt.Errorf("read tags: %w", err)
	}

	if fields.Title == "" {
		fields.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if measure != nil {
		if d, err := measure(path); err == nil {
			fields.Duration = int(d.Round(time.Second) / time.Second)
		}
	}
	return fields, nil
}
