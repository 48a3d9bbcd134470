package mpris

import (
	"time"

	"github.com/llehouerou/singalong/internal/playback"
)

// Player is the transport the MPRIS interface drives.
type Player interface {
	Play()
	Pause()
	Toggle()
	Stop()
	Next()
	Previous()
	Seek(pos time.Duration) error
	SetVolume(v float64) error
	SetSpeed(s float64) error
	Shuffle() bool
	SetShuffle(on bool)
	Snapshot() playback.Snapshot
	CanGoNext() bool
	CanGoPrevious() bool
}

// Runner runs fn on the goroutine that owns playback and waits for it.
type Runner func(fn func()) error
