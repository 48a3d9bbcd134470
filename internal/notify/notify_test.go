package notify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/player"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindProblem},
		{"download", fmt.Errorf("fetch: %w", lyrics.ErrDownload), KindLyricsDownload},
		{"parse", fmt.Errorf("%w: bad json", lyrics.ErrParse), KindLyricsParse},
		{"backend", &playback.BackendError{Op: playback.OpLoad, Source: "/a.mp3", Err: errors.New("eof")}, KindPlayback},
		{"unsupported format", player.ErrUnsupportedFormat, KindPlayback},
		{"other", errors.New("disk full"), KindProblem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindStyle(t *testing.T) {
	if s := KindPlayback.style(); s.urgency != urgencyCritical || s.category != "device.error" {
		t.Errorf("playback style = %+v, want critical device.error", s)
	}
	download, parse := KindLyricsDownload.style(), KindLyricsParse.style()
	if download.category == parse.category {
		t.Errorf("download and parse share category %q", download.category)
	}
	if download.urgency != urgencyNormal || parse.urgency != urgencyNormal {
		t.Errorf("lyrics urgencies = %d, %d, want normal", download.urgency, parse.urgency)
	}
	if s := KindNowPlaying.style(); s.urgency != urgencyLow || !s.transient {
		t.Errorf("now-playing style = %+v, want low and transient", s)
	}
	if got, want := Kind(99).style(), KindProblem.style(); got != want {
		t.Errorf("unknown kind style = %+v, want the problem style", got)
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}

func TestDiscard(t *testing.T) {
	id, err := Discard.Notify(Notice{Kind: KindPlayback, Title: "x"})
	if id != 0 || err != nil {
		t.Errorf("Discard.Notify() = %d, %v, want 0, nil", id, err)
	}
	if err := Discard.Close(1); err != nil {
		t.Errorf("Discard.Close() = %v", err)
	}
}
