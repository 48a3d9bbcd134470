//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playback"
)

// Adapter connects the player transport to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	log    *zap.Logger
}

// New creates and starts a new MPRIS adapter. Commands are handed to run so
// they execute on the goroutine that owns playback. log may be nil.
func New(p Player, run Runner, log *zap.Logger) (*Adapter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Adapter{log: log}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{player: p, run: run}

	a.server = server.NewServer("singalong", rootAdapter, playerAdapter)

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			log.Warn("mpris server", zap.Error(err))
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Singalong", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3", "audio/flac", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// optional shuffle property.
type playerAdapter struct {
	player Player
	run    Runner
}

func (p *playerAdapter) Next() error {
	return p.run(p.player.Next)
}

func (p *playerAdapter) Previous() error {
	return p.run(p.player.Previous)
}

func (p *playerAdapter) Pause() error {
	return p.run(p.player.Pause)
}

func (p *playerAdapter) PlayPause() error {
	return p.run(p.player.Toggle)
}

func (p *playerAdapter) Stop() error {
	return p.run(p.player.Stop)
}

func (p *playerAdapter) Play() error {
	return p.run(p.player.Play)
}

// Seek moves by offset. Seeking past the end skips to the next track.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	var seekErr error
	err := p.run(func() {
		snap := p.player.Snapshot()
		target := max(snap.Position+time.Duration(offset)*time.Microsecond, 0)
		if snap.Duration > 0 && target >= snap.Duration {
			p.player.Next()
			return
		}
		seekErr = p.player.Seek(target)
	})
	if err != nil {
		return err
	}
	return seekErr
}

// SetPosition seeks to position when trackID still names the current track.
func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	var seekErr error
	err := p.run(func() {
		snap := p.player.Snapshot()
		if trackID != formatTrackID(snap.Track, snap.Source) {
			return
		}
		pos := time.Duration(position) * time.Microsecond
		if pos < 0 || (snap.Duration > 0 && pos > snap.Duration) {
			return
		}
		seekErr = p.player.Seek(pos)
	})
	if err != nil {
		return err
	}
	return seekErr
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.player.Snapshot().Status {
	case playback.StatusPlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatusPaused:
		return types.PlaybackStatusPaused, nil
	case playback.StatusIdle, playback.StatusReady:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return p.player.Snapshot().Speed, nil
}

// SetRate picks the supported speed closest to rate.
func (p *playerAdapter) SetRate(rate float64) error {
	speed := nearestSpeed(rate)
	var setErr error
	err := p.run(func() { setErr = p.player.SetSpeed(speed) })
	if err != nil {
		return err
	}
	return setErr
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.player.Snapshot()
	track := snap.Track
	if track == nil {
		if snap.Source == "" {
			return types.Metadata{}, nil
		}
		// Radio stream: no tags, only the URL.
		return types.Metadata{
			TrackId: dbus.ObjectPath(formatTrackID(nil, snap.Source)),
			Title:   snap.Source,
		}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track, snap.Source)),
		Length:  types.Microseconds(snap.Duration.Microseconds()),
		Title:   track.Title(),
		Album:   track.Album(),
	}
	if artist := track.Artist(); artist != "" {
		meta.Artist = []string{artist}
	}
	if meta.Length == 0 {
		meta.Length = types.Microseconds((time.Duration(track.Duration()) * time.Second).Microseconds())
	}

	if artPath := track.CoverPath(); artPath != "" {
		meta.ArtUrl = "file://" + artPath
	} else if artPath := FindAlbumArt(track.FilePath()); artPath != "" {
		meta.ArtUrl = "file://" + artPath
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.player.Snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	v = min(max(v, 0), 1)
	var setErr error
	err := p.run(func() { setErr = p.player.SetVolume(v) })
	if err != nil {
		return err
	}
	return setErr
}

func (p *playerAdapter) Position() (int64, error) {
	return p.player.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return playback.Speeds[0], nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return playback.Speeds[len(playback.Speeds)-1], nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.player.CanGoNext(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.player.CanGoPrevious(), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Snapshot().Status.Loaded() || p.player.CanGoNext(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.player.Snapshot().Status.Loaded(), nil
}

// CanSeek is false for live streams, which report no duration.
func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.Snapshot().Duration > 0, nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle. It is false
// unless a playlist plays shuffled.
func (p *playerAdapter) Shuffle() (bool, error) {
	var on bool
	err := p.run(func() { on = p.player.Shuffle() })
	return on, err
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle. Only a
// playlist can be shuffled; in queue or radio mode the request is ignored.
func (p *playerAdapter) SetShuffle(on bool) error {
	return p.run(func() { p.player.SetShuffle(on) })
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

var _ types.OrgMprisMediaPlayer2PlayerAdapterShuffle = (*playerAdapter)(nil)

func nearestSpeed(rate float64) float64 {
	best := playback.Speeds[0]
	for _, s := range playback.Speeds[1:] {
		if math.Abs(s-rate) < math.Abs(best-rate) {
			best = s
		}
	}
	return best
}

func formatTrackID(t *library.Track, source string) string {
	if t != nil && t.ID() != 0 {
		return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%d", t.ID())
	}
	if t != nil {
		source = t.FilePath()
	}
	h := fnv.New64a()
	h.Write([]byte(source))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/x%x", h.Sum64())
}
