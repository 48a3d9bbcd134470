package playback

import (
	"time"

	"github.com/llehouerou/singalong/internal/library"
)

// StateChange is emitted when the engine status changes.
type StateChange struct {
	Previous Status
	Current  Status
}

// TrackChange is emitted when the loaded track changes. Current is nil when
// the engine has been cleared by stop, reset or a failed load. Loading a bare
// source such as a radio URL also reports a nil track.
type TrackChange struct {
	Previous *library.Track
	Current  *library.Track
	Source   string
}

// Progress is emitted every tick while playing and after each seek.
type Progress struct {
	Fraction float64 // elapsed / duration in [0,1]; 0 when the duration is unknown
	Elapsed  time.Duration
	Duration time.Duration
	Track    *library.Track // the track the position belongs to; nil for bare sources
}

// Millis returns the elapsed time in milliseconds.
func (p Progress) Millis() int64 {
	return p.Elapsed.Milliseconds()
}

// ErrorEvent is emitted when opening a source fails or the backend faults.
type ErrorEvent struct {
	Operation string // "load" or "playback"
	Source    string
	Err       error
}
