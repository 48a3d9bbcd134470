package state

import (
	"slices"
	"strings"
	"testing"

	"github.com/llehouerou/singalong/internal/library"
)

func TestSearchTracks(t *testing.T) {
	s := setupTestStore(t)
	ctx := t.Context()

	add := func(f library.Fields) int64 {
		t.Helper()
		f.FilePath = "/music/" + f.Title + ".mp3"
		tr := library.NewTrack(f)
		if err := s.InsertTrack(ctx, tr); err != nil {
			t.Fatalf("InsertTrack(%q) failed: %v", f.Title, err)
		}
		return tr.ID()
	}
	wonder := add(library.Fields{Title: "Wonderwall", Artist: "Oasis", Album: "Morning Glory", Genre: "Rock"})
	wander := add(library.Fields{Title: "wandering", Artist: "Oasis", Genre: "rock"})
	pct := add(library.Fields{Title: "100% Pure", Artist: "Other", Album: "Morning"})
	add(library.Fields{Title: "Yellow", Artist: "Coldplay", Genre: "Pop"})

	tests := []struct {
		name  string
		field SearchField
		q     string
		want  []int64
	}{
		{"title prefix ignores case", SearchTitle, "w", []int64{wander, wonder}},
		{"title is a prefix only", SearchTitle, "wall", nil},
		{"title wildcard is literal", SearchTitle, "100%", []int64{pct}},
		{"underscore is literal", SearchTitle, "1_0", nil},
		{"artist matches whole", SearchArtist, "oasis", []int64{wander, wonder}},
		{"artist partial does not match", SearchArtist, "Oas", nil},
		{"album", SearchAlbum, "Morning", []int64{pct}},
		{"genre ignores case", SearchGenre, "ROCK", []int64{wander, wonder}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchTracks(ctx, tt.field, tt.q)
			if err != nil {
				t.Fatalf("SearchTracks failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("SearchTracks(%v, %q) = %v, want %v", tt.field, tt.q, got, tt.want)
			}
		})
	}

	if _, err := s.SearchTracks(ctx, SearchField(9), "x"); err == nil {
		t.Error("SearchTracks with an unknown field succeeded")
	}
}

func TestParseSearchField(t *testing.T) {
	for _, name := range []string{"title", "Artist", "ALBUM", "genre"} {
		f, err := ParseSearchField(name)
		if err != nil {
			t.Fatalf("ParseSearchField(%q) failed: %v", name, err)
		}
		if !strings.EqualFold(f.String(), name) {
			t.Errorf("ParseSearchField(%q) = %v", name, f)
		}
	}
	if _, err := ParseSearchField("year"); err == nil {
		t.Error("ParseSearchField(year) succeeded")
	}
	if got := SearchField(-1).String(); got != "unknown" {
		t.Errorf("SearchField(-1).String() = %q", got)
	}
}

