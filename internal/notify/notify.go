// Package notify shows the player's notices on the desktop: the track that
// starts playing and the failures the user can act on.
package notify

import (
	"errors"

	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/player"
)

// Kind classifies a notice. The notifier derives urgency, display time and
// the freedesktop category from it.
type Kind int

const (
	KindNowPlaying     Kind = iota
	KindPlayback            // a source failed to open or play
	KindLyricsDownload      // the lyrics service could not be reached
	KindLyricsParse         // the lyrics service answered with something unreadable
	KindProblem             // any other failure
)

func (k Kind) String() string {
	switch k {
	case KindNowPlaying:
		return "now-playing"
	case KindPlayback:
		return "playback"
	case KindLyricsDownload:
		return "lyrics-download"
	case KindLyricsParse:
		return "lyrics-parse"
	case KindProblem:
		return "problem"
	}
	return "unknown"
}

// urgency levels of the freedesktop notification protocol.
type urgency byte

const (
	urgencyLow urgency = iota
	urgencyNormal
	urgencyCritical
)

type style struct {
	urgency   urgency
	category  string
	timeout   int32 // ms
	transient bool  // kept out of the notification history
}

var styles = map[Kind]style{
	KindNowPlaying:     {urgencyLow, "x-singalong.now-playing", 5000, true},
	KindPlayback:       {urgencyCritical, "device.error", 8000, false},
	KindLyricsDownload: {urgencyNormal, "network.error", 6000, false},
	KindLyricsParse:    {urgencyNormal, "transfer.error", 6000, false},
	KindProblem:        {urgencyNormal, "x-singalong.error", 6000, false},
}

func (k Kind) style() style {
	if s, ok := styles[k]; ok {
		return s
	}
	return styles[KindProblem]
}

// KindOf picks the notice kind for a failure.
func KindOf(err error) Kind {
	var backend *playback.BackendError
	switch {
	case err == nil:
		return KindProblem
	case errors.Is(err, lyrics.ErrDownload):
		return KindLyricsDownload
	case errors.Is(err, lyrics.ErrParse):
		return KindLyricsParse
	case errors.As(err, &backend), errors.Is(err, player.ErrUnsupportedFormat):
		return KindPlayback
	}
	return KindProblem
}

// Notice is one desktop notice. Title and Body are plain text.
type Notice struct {
	Kind       Kind
	Title      string
	Body       string
	Icon       string // image path or icon name
	ReplacesID uint32 // id of a notice to update in place, 0 for a new one
}

// Notifier shows notices.
type Notifier interface {
	// Notify shows n and returns its id, or 0 when nothing was shown.
	Notify(n Notice) (uint32, error)
	// Close withdraws a notice.
	Close(id uint32) error
}

// Discard is a Notifier that shows nothing.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) (uint32, error) { return 0, nil }
func (discard) Close(uint32) error            { return nil }
