// Package player is the audio output layer: it opens a source and hands
// back a session the playback engine drives. The engine never touches the
// decoder or the sound device directly.
package player

import (
	"errors"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for sources with no known decoder.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNotSeekable is returned by Seek on live streams.
	ErrNotSeekable = errors.New("source is not seekable")
)

// Backend opens playable sessions.
type Backend interface {
	// Open prepares source for playback, paused at position 0. source is a
	// local file path or an http(s) URL.
	Open(source string) (Session, error)
}

// Session is one opened source.
//
// Finished is closed when the source plays to its end. A decode or device
// failure is sent once on Errors instead; after either signal the session
// produces no more audio. Both channels are never signalled after Close.
type Session interface {
	Play()
	Pause()
	Position() time.Duration
	// Duration is 0 when the length is unknown, as for live streams.
	Duration() time.Duration
	Seek(pos time.Duration) error
	// SetVolume takes a linear gain in [0,1].
	SetVolume(gain float64)
	// SetBalance takes a pan in [-1,1], negative is left.
	SetBalance(balance float64)
	// SetSpeed takes a playback rate multiplier; pitch follows the rate.
	SetSpeed(speed float64)
	Finished() <-chan struct{}
	Errors() <-chan error
	Close() error
}
