package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/playlist"
	"github.com/llehouerou/singalong/internal/sequencer"
)

// Mode says what feeds the engine.
type Mode int

const (
	ModeQueue Mode = iota
	ModePlaylist
	ModeRadio
)

func (m Mode) String() string {
	switch m {
	case ModeQueue:
		return "queue"
	case ModePlaylist:
		return "playlist"
	case ModeRadio:
		return "radio"
	}
	return "unknown"
}

// Transport routes play, stop, next and previous to whichever sequencer
// currently owns the engine. Methods must be called from the control
// goroutine.
type Transport struct {
	engine   *playback.Engine
	queue    *sequencer.Queue
	playlist *sequencer.Playlist
	q        *playlist.Queue
	log      *zap.Logger

	mu      sync.RWMutex
	mode    Mode
	station string
}

// NewTransport creates a transport in queue mode. log may be nil.
func NewTransport(e *playback.Engine, qs *sequencer.Queue, ps *sequencer.Playlist, q *playlist.Queue, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{engine: e, queue: qs, playlist: ps, q: q, log: log}
}

// --- Mode ---

// Mode returns the active mode.
func (t *Transport) Mode() Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// Station returns the stream URL playing in radio mode, or "".
func (t *Transport) Station() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.station
}

func (t *Transport) switchTo(m Mode) {
	t.mu.Lock()
	prev := t.mode
	t.mode = m
	t.station = ""
	t.mu.Unlock()

	if prev == m {
		return
	}
	switch prev {
	case ModeQueue:
		t.queue.Stop()
	case ModePlaylist:
		t.playlist.Detach()
	case ModeRadio:
		t.engine.Reset()
	}
}

// --- Starting playback ---

// Enqueue adds tr to the play queue. In queue mode an idle engine starts
// playing it.
func (t *Transport) Enqueue(tr *library.Track) bool {
	if t.Mode() != ModeQueue {
		return t.q.Add(tr)
	}
	return t.queue.Add(tr)
}

// PlayNow replaces the queue with tr and plays it.
func (t *Transport) PlayNow(tr *library.Track) {
	t.switchTo(ModeQueue)
	t.queue.PlaySingle(tr)
}

// PlayQueue switches to the queue and plays its head.
func (t *Transport) PlayQueue() {
	t.switchTo(ModeQueue)
	t.queue.Start()
}

// PlayPlaylist walks p from position i of its traversal order.
func (t *Transport) PlayPlaylist(p *playlist.Playlist, i int) {
	t.switchTo(ModePlaylist)
	t.playlist.PlayAt(p, i)
}

// PlayStation streams url. Streams have no end, so nothing follows them.
func (t *Transport) PlayStation(url string) error {
	t.switchTo(ModeRadio)
	t.engine.Reset()
	if err := t.engine.Load(url); err != nil {
		return err
	}
	t.mu.Lock()
	t.station = url
	t.mu.Unlock()
	t.engine.Play()
	return nil
}

// --- Transport controls ---

// Play resumes a loaded source, or starts the active mode from the top.
func (t *Transport) Play() {
	if t.engine.Status().Loaded() {
		t.engine.Play()
		return
	}
	switch t.Mode() {
	case ModeQueue:
		t.queue.Start()
	case ModePlaylist:
		if p := t.playlist.Playlist(); p != nil {
			t.playlist.PlayAt(p, 0)
		}
	case ModeRadio:
		if url := t.Station(); url != "" {
			if err := t.PlayStation(url); err != nil {
				t.log.Warn("restart station", zap.String("url", url), zap.Error(err))
			}
		}
	}
}

// Pause pauses playback.
func (t *Transport) Pause() { t.engine.Pause() }

// Toggle switches between playing and paused, starting playback if idle.
func (t *Transport) Toggle() {
	if !t.engine.Status().Loaded() {
		t.Play()
		return
	}
	t.engine.Toggle()
}

// Stop halts playback. Queue and playlist contents are kept.
func (t *Transport) Stop() {
	switch t.Mode() {
	case ModeQueue:
		t.queue.Stop()
	case ModePlaylist:
		t.playlist.Stop()
	case ModeRadio:
		t.engine.Reset()
	}
}

// Next skips to the following track.
func (t *Transport) Next() {
	switch t.Mode() {
	case ModeQueue:
		t.queue.Next()
	case ModePlaylist:
		t.playlist.Next()
	case ModeRadio:
	}
}

// Previous restarts the track or goes back one, depending on the mode.
func (t *Transport) Previous() {
	switch t.Mode() {
	case ModeQueue:
		t.queue.Previous()
	case ModePlaylist:
		t.playlist.Previous()
	case ModeRadio:
	}
}

// Seek moves to pos within the current track.
func (t *Transport) Seek(pos time.Duration) error { return t.engine.Seek(pos) }

// SetVolume sets the output volume.
func (t *Transport) SetVolume(v float64) error { return t.engine.SetVolume(v) }

// SetSpeed sets the playback rate.
func (t *Transport) SetSpeed(s float64) error { return t.engine.SetSpeed(s) }

// SetBalance sets the stereo balance.
func (t *Transport) SetBalance(b float64) error { return t.engine.SetBalance(b) }

// ToggleFade flips fading and returns the new setting.
func (t *Transport) ToggleFade() bool { return t.engine.ToggleFade() }

// --- Playlist view ---

// CanShuffle reports whether a playlist is attached to toggle shuffle on.
func (t *Transport) CanShuffle() bool {
	return t.Mode() == ModePlaylist && t.playlist.Playlist() != nil
}

// Shuffle reports whether the attached playlist plays shuffled.
func (t *Transport) Shuffle() bool {
	if !t.CanShuffle() {
		return false
	}
	return t.playlist.Playlist().Shuffled()
}

// SetShuffle shuffles or unshuffles the attached playlist. The playing
// track keeps playing. Outside playlist mode it does nothing.
func (t *Transport) SetShuffle(on bool) {
	if t.CanShuffle() {
		t.playlist.SetShuffle(on)
	}
}

// ToggleShuffle flips shuffle and returns the new setting.
func (t *Transport) ToggleShuffle() bool {
	if !t.CanShuffle() {
		return false
	}
	on := !t.Shuffle()
	t.playlist.SetShuffle(on)
	return on
}

// Reorder moves a track of p from one position to another. When p is being
// walked the sequencer keeps its place on the playing track.
func (t *Transport) Reorder(p *playlist.Playlist, from, to int) bool {
	if t.playlist.Playlist() == p {
		return t.playlist.Reorder(from, to)
	}
	return p.Reorder(from, to)
}

// --- State ---

// Snapshot returns the engine state.
func (t *Transport) Snapshot() playback.Snapshot { return t.engine.Snapshot() }

// Current returns the track the active sequencer is playing, or nil.
func (t *Transport) Current() *library.Track {
	switch t.Mode() {
	case ModeQueue:
		return t.queue.Current()
	case ModePlaylist:
		return t.playlist.Current()
	}
	return nil
}

// CanGoNext reports whether Next would start another track.
func (t *Transport) CanGoNext() bool {
	switch t.Mode() {
	case ModeQueue:
		if t.queue.Current() != nil {
			return t.q.Len() > 1
		}
		return t.q.Len() > 0
	case ModePlaylist:
		p := t.playlist.Playlist()
		idx := t.playlist.Index()
		return p != nil && idx >= 0 && idx+1 < len(p.Order())
	}
	return false
}

// CanGoPrevious reports whether Previous does anything.
func (t *Transport) CanGoPrevious() bool {
	return t.Current() != nil
}
