package library

import (
	"sync"

	"github.com/llehouerou/singalong/internal/event"
)

// Fields holds every attribute of a track. Empty strings stand for
// missing values, including the two lyrics paths.
type Fields struct {
	Title           string
	Artist          string
	Album           string
	Year            string
	Duration        int // seconds
	Genre           string
	FilePath        string
	CoverPath       string
	LyricsPath      string
	TimedLyricsPath string
}

// Track is a playable item. A zero ID means the track has not been saved.
//
// Changing a display field (title, artist, album, year, genre) through the
// setters or Assign publishes one TrackChanged event on the owning
// library's bus. Calls that leave every field unchanged publish nothing.
type Track struct {
	mu  sync.RWMutex
	id  int64
	f   Fields
	bus *event.Bus[Event]
}

// NewTrack creates an unsaved track.
func NewTrack(f Fields) *Track {
	f.Duration = max(f.Duration, 0)
	return &Track{f: f}
}

// ID returns the persistent id, 0 if unsaved.
func (t *Track) ID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

// SetID is called by persistence once the track has been stored.
func (t *Track) SetID(id int64) {
	t.mu.Lock()
	t.id = id
	t.mu.Unlock()
}

// Fields returns a copy of every attribute.
func (t *Track) Fields() Fields {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.f
}

func (t *Track) Title() string           { return t.Fields().Title }
func (t *Track) Artist() string          { return t.Fields().Artist }
func (t *Track) Album() string           { return t.Fields().Album }
func (t *Track) Year() string            { return t.Fields().Year }
func (t *Track) Duration() int           { return t.Fields().Duration }
func (t *Track) Genre() string           { return t.Fields().Genre }
func (t *Track) FilePath() string        { return t.Fields().FilePath }
func (t *Track) CoverPath() string       { return t.Fields().CoverPath }
func (t *Track) LyricsPath() string      { return t.Fields().LyricsPath }
func (t *Track) TimedLyricsPath() string { return t.Fields().TimedLyricsPath }

func (t *Track) SetTitle(v string)  { t.update(func(f *Fields) { f.Title = v }, true) }
func (t *Track) SetArtist(v string) { t.update(func(f *Fields) { f.Artist = v }, true) }
func (t *Track) SetAlbum(v string)  { t.update(func(f *Fields) { f.Album = v }, true) }
func (t *Track) SetYear(v string)   { t.update(func(f *Fields) { f.Year = v }, true) }
func (t *Track) SetGenre(v string)  { t.update(func(f *Fields) { f.Genre = v }, true) }

// SetDuration stores the length in seconds; negative values become 0.
func (t *Track) SetDuration(seconds int) {
	t.update(func(f *Fields) { f.Duration = max(seconds, 0) }, false)
}

func (t *Track) SetFilePath(v string)  { t.update(func(f *Fields) { f.FilePath = v }, false) }
func (t *Track) SetCoverPath(v string) { t.update(func(f *Fields) { f.CoverPath = v }, false) }

// SetLyricsPath points the track at a plain-text lyrics file. Empty clears it.
func (t *Track) SetLyricsPath(v string) { t.update(func(f *Fields) { f.LyricsPath = v }, false) }

// SetTimedLyricsPath points the track at an LRC file. Empty clears it.
func (t *Track) SetTimedLyricsPath(v string) {
	t.update(func(f *Fields) { f.TimedLyricsPath = v }, false)
}

// Assign replaces every field at once, as a metadata edit does.
func (t *Track) Assign(f Fields) {
	f.Duration = max(f.Duration, 0)
	t.update(func(cur *Fields) { *cur = f }, true)
}

func (t *Track) update(apply func(*Fields), notify bool) {
	t.mu.Lock()
	before := t.f
	apply(&t.f)
	changed := t.f != before
	bus := t.bus
	t.mu.Unlock()

	if changed && notify {
		bus.Publish(Event{Kind: TrackChanged, Track: t})
	}
}

func (t *Track) attach(bus *event.Bus[Event]) {
	t.mu.Lock()
	t.bus = bus
	t.mu.Unlock()
}

// String returns "Artist - Title", or just the title when the artist is unknown.
func (t *Track) String() string {
	f := t.Fields()
	if f.Artist == "" {
		return f.Title
	}
	return f.Artist + " - " + f.Title
}

// Same reports whether a and b denote the same track: the same pointer, or
// two saved tracks sharing an id.
func Same(a, b *Track) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	ida, idb := a.ID(), b.ID()
	return ida != 0 && ida == idb
}
