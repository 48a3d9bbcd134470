package library

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collect(l *Library) *[]Event {
	var events []Event
	l.Events().Subscribe(func(e Event) { events = append(events, e) })
	return &events
}

func TestTrack_SetterNotifiesOnce(t *testing.T) {
	lib := New()
	tr := NewTrack(Fields{Title: "Old"})
	tr.SetID(7)
	lib.Add(tr)
	events := collect(lib)

	tr.SetTitle("New")

	if len(*events) != 1 {
		t.Fatalf("events = %d, want 1", len(*events))
	}
	if e := (*events)[0]; e.Kind != TrackChanged || e.Track != tr {
		t.Errorf("event = %+v, want TrackChanged for track", e)
	}
}

func TestTrack_IdenticalValueDoesNotNotify(t *testing.T) {
	lib := New()
	tr := NewTrack(Fields{Title: "Same", Artist: "A"})
	lib.Add(tr)
	events := collect(lib)

	tr.SetTitle("Same")
	tr.Assign(tr.Fields())

	if len(*events) != 0 {
		t.Errorf("events = %d, want 0", len(*events))
	}
}

func TestTrack_AssignNotifiesOnce(t *testing.T) {
	lib := New()
	tr := NewTrack(Fields{Title: "T", Artist: "A"})
	lib.Add(tr)
	events := collect(lib)

	tr.Assign(Fields{Title: "T2", Artist: "A2", Album: "B", Duration: -3})

	if len(*events) != 1 {
		t.Errorf("events = %d, want 1", len(*events))
	}
	if tr.Duration() != 0 {
		t.Errorf("Duration() = %d, want 0 (clamped)", tr.Duration())
	}
}

func TestTrack_PathSettersAreSilent(t *testing.T) {
	lib := New()
	tr := NewTrack(Fields{Title: "T"})
	lib.Add(tr)
	events := collect(lib)

	tr.SetTimedLyricsPath("/tmp/t.lrc")
	tr.SetLyricsPath("/tmp/t.txt")
	tr.SetDuration(10)

	if len(*events) != 0 {
		t.Errorf("events = %d, want 0", len(*events))
	}
	if tr.TimedLyricsPath() != "/tmp/t.lrc" {
		t.Errorf("TimedLyricsPath() = %q", tr.TimedLyricsPath())
	}
}

func TestTrack_DetachedTrackMutatesSilently(t *testing.T) {
	tr := NewTrack(Fields{Title: "T"})
	tr.SetTitle("U") // no bus, must not panic
	if tr.Title() != "U" {
		t.Errorf("Title() = %q, want U", tr.Title())
	}
}

func TestSame(t *testing.T) {
	a := NewTrack(Fields{Title: "a"})
	b := NewTrack(Fields{Title: "a"})
	tests := []struct {
		name string
		x, y *Track
		want bool
	}{
		{"same pointer", a, a, true},
		{"unsaved distinct", a, b, false},
		{"nil both", nil, nil, true},
		{"nil one", a, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.x, tt.y); got != tt.want {
				t.Errorf("Same() = %v, want %v", got, tt.want)
			}
		})
	}

	c, d := NewTrack(Fields{}), NewTrack(Fields{})
	c.SetID(3)
	d.SetID(3)
	if !Same(c, d) {
		t.Error("Same() = false for tracks sharing id 3")
	}
}

func TestLibrary_AddRemove(t *testing.T) {
	lib := New()
	events := collect(lib)
	tr := NewTrack(Fields{Title: "T", FilePath: "/m/t.mp3"})
	tr.SetID(5)

	lib.Add(tr)
	if got, ok := lib.Get(5); !ok || got != tr {
		t.Fatal("Get(5) did not return added track")
	}
	if got, ok := lib.FindByPath("/m/t.mp3"); !ok || got != tr {
		t.Error("FindByPath() did not find track")
	}
	if !lib.Remove(5) {
		t.Fatal("Remove(5) = false")
	}
	if lib.Remove(5) {
		t.Error("second Remove(5) = true")
	}

	tr.SetTitle("after removal")

	kinds := make([]EventKind, 0, len(*events))
	for _, e := range *events {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != TrackAdded || kinds[1] != TrackRemoved {
		t.Errorf("event kinds = %v, want [Added Removed]", kinds)
	}
}

func TestReadFields_UntaggedFileUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "My Song.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), 512), 0o600); err != nil {
		t.Fatal(err)
	}

	measure := func(string) (time.Duration, error) { return 61600 * time.Millisecond, nil }
	f, err := ReadFields(path, measure)
	if err != nil {
		t.Fatalf("ReadFields() error = %v", err)
	}
	if f.Title != "My Song" {
		t.Errorf("Title = %q, want %q", f.Title, "My Song")
	}
	if f.Duration != 62 {
		t.Errorf("Duration = %d, want 62", f.Duration)
	}
	if f.FilePath != path {
		t.Errorf("FilePath = %q, want %q", f.FilePath, path)
	}
}
