// Package sequencer decides what plays next. The queue sequencer consumes
// the play queue; the playlist sequencer walks a playlist without changing it.
package sequencer

import (
	"time"

	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playback"
)

// Engine is the part of the playback engine a sequencer drives.
type Engine interface {
	LoadTrack(t *library.Track) error
	Play()
	Reset()
	Seek(pos time.Duration) error
	RegisterEndOfMedia(c playback.Continuation)
	Status() playback.Status
}

var _ Engine = (*playback.Engine)(nil)

// NowPlaying is published whenever a sequencer starts a track or stops.
// Track is nil when nothing is playing any more.
type NowPlaying struct {
	Track *library.Track
}
