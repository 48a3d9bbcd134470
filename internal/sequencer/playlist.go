package sequencer

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playlist"
)

// Playlist walks a playlist's traversal order (stored or shuffled) one
// track after another and stops after the last one. The playlist itself is
// never modified by playing it. Methods must be called from the control
// goroutine.
type Playlist struct {
	engine Engine
	log    *zap.Logger
	bus    *event.Bus[NowPlaying]

	mu      sync.RWMutex
	list    *playlist.Playlist
	order   []*library.Track
	index   int
	current *library.Track
	unwatch func()
}

// NewPlaylist creates a playlist sequencer. log may be nil.
func NewPlaylist(engine Engine, log *zap.Logger) *Playlist {
	if log == nil {
		log = zap.NewNop()
	}
	return &Playlist{
		engine: engine,
		log:    log,
		bus:    event.NewBus[NowPlaying](),
		index:  -1,
	}
}

// Events returns the bus carrying NowPlaying changes.
func (s *Playlist) Events() *event.Bus[NowPlaying] {
	return s.bus
}

// Current returns the playing track, or nil.
func (s *Playlist) Current() *library.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Index returns the position of the playing track in the traversal order,
// or -1.
func (s *Playlist) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return -1
	}
	return s.index
}

// Playlist returns the playlist being walked, or nil.
func (s *Playlist) Playlist() *playlist.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list
}

// Play starts p from its first track.
func (s *Playlist) Play(p *playlist.Playlist) {
	s.PlayAt(p, 0)
}

// PlayAt starts p at position i of its traversal order.
func (s *Playlist) PlayAt(p *playlist.Playlist, i int) {
	s.mu.Lock()
	if s.unwatch != nil {
		s.unwatch()
	}
	s.list = p
	s.order = p.Order()
	s.unwatch = p.Events().Subscribe(func(playlist.Change) { s.refresh() })
	s.mu.Unlock()

	s.playAt(i)
}

// Next skips to the following track, stopping after the last one.
func (s *Playlist) Next() {
	s.mu.RLock()
	active := s.list != nil && s.current != nil
	next := s.index + 1
	s.mu.RUnlock()
	if active {
		s.playAt(next)
	}
}

// Previous goes back one track once past the first; on the first track it
// restarts it.
func (s *Playlist) Previous() {
	s.mu.RLock()
	active, idx := s.current != nil, s.index
	s.mu.RUnlock()
	if !active {
		return
	}
	if idx >= 1 {
		s.playAt(idx - 1)
		return
	}
	if err := s.engine.Seek(0); err != nil {
		s.log.Warn("restart track", zap.Error(err))
	}
}

// SetShuffle switches the playlist's shuffled view. The playing track keeps
// playing and the walk continues from its place in the new order.
func (s *Playlist) SetShuffle(on bool) {
	p := s.Playlist()
	if p == nil {
		return
	}
	p.SetShuffle(on)
	s.refresh()
}

// Reorder moves a track within the playlist being walked.
func (s *Playlist) Reorder(from, to int) bool {
	p := s.Playlist()
	if p == nil {
		return false
	}
	return p.Reorder(from, to)
}

// Stop halts playback. The playlist stays attached so Play can start it
// again.
func (s *Playlist) Stop() {
	s.finish()
}

// Detach stops playback and forgets the playlist.
func (s *Playlist) Detach() {
	s.engine.Reset()
	s.mu.Lock()
	if s.unwatch != nil {
		s.unwatch()
		s.unwatch = nil
	}
	s.list = nil
	s.order = nil
	s.index = -1
	s.mu.Unlock()
	s.setCurrent(nil)
}

func (s *Playlist) playAt(i int) {
	s.mu.Lock()
	if i < 0 || i >= len(s.order) {
		s.mu.Unlock()
		s.finish()
		return
	}
	s.index = i
	t := s.order[i]
	s.mu.Unlock()

	if err := s.engine.LoadTrack(t); err != nil {
		s.log.Warn("load playlist track", zap.String("track", t.String()), zap.Error(err))
		s.setCurrent(nil)
		return
	}
	s.engine.RegisterEndOfMedia(func() { s.Next() })
	s.setCurrent(t)
	s.engine.Play()
}

// finish is reached past the last track: stop, leaving the playlist as is.
func (s *Playlist) finish() {
	s.engine.Reset()
	s.mu.Lock()
	s.index = -1
	s.mu.Unlock()
	s.setCurrent(nil)
}

// refresh re-reads the traversal order after the playlist changed and
// re-anchors the walk on the playing track. If that track was removed, the
// track that took its place plays next.
func (s *Playlist) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.list == nil {
		return
	}
	order := s.list.Order()
	if i := slices.IndexFunc(order, func(t *library.Track) bool {
		return library.Same(t, s.current)
	}); i >= 0 {
		s.index = i
	} else if s.current != nil {
		s.index = min(s.index, len(order)) - 1
	}
	s.order = order
}

func (s *Playlist) setCurrent(t *library.Track) {
	s.mu.Lock()
	prev := s.current
	s.current = t
	s.mu.Unlock()
	if prev != t {
		s.bus.Publish(NowPlaying{Track: t})
	}
}
