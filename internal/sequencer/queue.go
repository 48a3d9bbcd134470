package sequencer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playlist"
)

// Queue plays the play queue head first and removes each track once it has
// finished. Methods must be called from the control goroutine.
type Queue struct {
	engine Engine
	queue  *playlist.Queue
	log    *zap.Logger
	bus    *event.Bus[NowPlaying]

	mu      sync.RWMutex
	current *library.Track
}

// NewQueue creates a queue sequencer. log may be nil.
func NewQueue(engine Engine, q *playlist.Queue, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		engine: engine,
		queue:  q,
		log:    log,
		bus:    event.NewBus[NowPlaying](),
	}
}

// Events returns the bus carrying NowPlaying changes.
func (s *Queue) Events() *event.Bus[NowPlaying] {
	return s.bus
}

// Current returns the track being played from the queue, or nil.
func (s *Queue) Current() *library.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Add appends t to the queue. When nothing is playing, playback starts.
// Adding a track already queued changes nothing.
func (s *Queue) Add(t *library.Track) bool {
	added := s.queue.Add(t)
	if added && s.Current() == nil && !s.engine.Status().Loaded() {
		s.Start()
	}
	return added
}

// Start plays the head of the queue, or stops if the queue is empty.
func (s *Queue) Start() {
	head := s.queue.Head()
	if head == nil {
		s.Stop()
		return
	}
	s.play(head)
}

// PlayTrack plays t, which must already be queued. When it ends it is
// removed and the head plays next.
func (s *Queue) PlayTrack(t *library.Track) bool {
	if !s.queue.Contains(t) {
		return false
	}
	s.play(t)
	return true
}

// PlaySingle replaces the queue with t and plays it.
func (s *Queue) PlaySingle(t *library.Track) {
	s.queue.Clear()
	s.queue.Add(t)
	s.Start()
}

// Next drops the current track and plays the new head, stopping if none
// remain.
func (s *Queue) Next() {
	if cur := s.Current(); cur != nil {
		s.queue.Remove(cur)
	}
	s.Start()
}

// Previous restarts the current track. Played tracks are gone from the
// queue, so there is nothing to go back to.
func (s *Queue) Previous() {
	if s.Current() == nil {
		return
	}
	if err := s.engine.Seek(0); err != nil {
		s.log.Warn("restart track", zap.Error(err))
	}
}

// Remove takes t out of the queue. Removing the playing track moves on to
// the new head.
func (s *Queue) Remove(t *library.Track) bool {
	if !s.queue.Remove(t) {
		return false
	}
	if library.Same(t, s.Current()) {
		s.Start()
	}
	return true
}

// Clear empties the queue and stops playback.
func (s *Queue) Clear() {
	s.queue.Clear()
	s.Stop()
}

// Stop halts playback without touching the queue.
func (s *Queue) Stop() {
	s.engine.Reset()
	s.setCurrent(nil)
}

func (s *Queue) play(t *library.Track) {
	if err := s.engine.LoadTrack(t); err != nil {
		s.log.Warn("load queued track", zap.String("track", t.String()), zap.Error(err))
		s.setCurrent(nil)
		return
	}
	s.engine.RegisterEndOfMedia(func() { s.finished(t) })
	s.setCurrent(t)
	s.engine.Play()
}

// finished is the end-of-media continuation for t. The finished track is
// removed by identity: the head may have changed while it played.
func (s *Queue) finished(t *library.Track) {
	s.queue.Remove(t)
	s.Start()
}

func (s *Queue) setCurrent(t *library.Track) {
	s.mu.Lock()
	prev := s.current
	s.current = t
	s.mu.Unlock()
	if prev != t {
		s.bus.Publish(NowPlaying{Track: t})
	}
}
