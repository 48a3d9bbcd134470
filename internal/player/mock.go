package player

import (
	"sync"
	"time"
)

// MockBackend is a test double for Backend. Sessions it opens advance their
// position with the wall clock while playing, so tests running inside a
// synctest bubble see deterministic progress.
type MockBackend struct {
	mu        sync.Mutex
	openErr   error
	durations map[string]time.Duration
	fallback  time.Duration
	opened    []string
	sessions  []*MockSession
}

// NewMockBackend creates a mock whose sessions last d unless overridden.
func NewMockBackend(d time.Duration) *MockBackend {
	return &MockBackend{durations: make(map[string]time.Duration), fallback: d}
}

// Open implements Backend.
func (b *MockBackend) Open(source string) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, source)
	if b.openErr != nil {
		return nil, b.openErr
	}
	d, ok := b.durations[source]
	if !ok {
		d = b.fallback
	}
	s := &MockSession{
		Source:   source,
		duration: d,
		volume:   1,
		speed:    1,
		finished: make(chan struct{}),
		errs:     make(chan error, 1),
	}
	b.sessions = append(b.sessions, s)
	return s, nil
}

// Test helpers

func (b *MockBackend) SetOpenError(err error) {
	b.mu.Lock()
	b.openErr = err
	b.mu.Unlock()
}

func (b *MockBackend) SetDuration(source string, d time.Duration) {
	b.mu.Lock()
	b.durations[source] = d
	b.mu.Unlock()
}

// Opened returns every source passed to Open, in order.
func (b *MockBackend) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

// Last returns the most recently opened session, or nil.
func (b *MockBackend) Last() *MockSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sessions) == 0 {
		return nil
	}
	return b.sessions[len(b.sessions)-1]
}

// MockSession is a test double for Session.
type MockSession struct {
	Source string

	mu        sync.Mutex
	duration  time.Duration
	base      time.Duration
	startedAt time.Time
	playing   bool
	closed    bool
	volume    float64
	balance   float64
	speed     float64
	volumes   []float64
	seeks     []time.Duration
	finished  chan struct{}
	finOnce   sync.Once
	errs      chan error
}

func (s *MockSession) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		s.playing = true
		s.startedAt = time.Now()
	}
}

func (s *MockSession) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.base = s.positionLocked()
		s.playing = false
	}
}

func (s *MockSession) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *MockSession) positionLocked() time.Duration {
	pos := s.base
	if s.playing {
		pos += time.Duration(float64(time.Since(s.startedAt)) * s.speed)
	}
	if s.duration > 0 {
		pos = min(pos, s.duration)
	}
	return pos
}

func (s *MockSession) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *MockSession) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeks = append(s.seeks, pos)
	s.base = pos
	s.startedAt = time.Now()
	return nil
}

func (s *MockSession) SetVolume(gain float64) {
	s.mu.Lock()
	s.volume = gain
	s.volumes = append(s.volumes, gain)
	s.mu.Unlock()
}

func (s *MockSession) SetBalance(balance float64) {
	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()
}

func (s *MockSession) SetSpeed(speed float64) {
	s.mu.Lock()
	if s.playing {
		s.base = s.positionLocked()
		s.startedAt = time.Now()
	}
	s.speed = speed
	s.mu.Unlock()
}

func (s *MockSession) Finished() <-chan struct{} { return s.finished }

func (s *MockSession) Errors() <-chan error { return s.errs }

func (s *MockSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.playing = false
	s.mu.Unlock()
	return nil
}

// Test helpers

func (s *MockSession) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *MockSession) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Volumes returns every gain passed to SetVolume.
func (s *MockSession) Volumes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.volumes...)
}

func (s *MockSession) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func (s *MockSession) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

func (s *MockSession) Seeks() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.seeks...)
}

// SimulateFinished signals end of media.
func (s *MockSession) SimulateFinished() {
	s.finOnce.Do(func() { close(s.finished) })
}

// SimulateError signals a backend fault.
func (s *MockSession) SimulateError(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Verify the mocks implement the interfaces at compile time.
var (
	_ Backend = (*MockBackend)(nil)
	_ Session = (*MockSession)(nil)
	_ Backend = (*Speaker)(nil)
)
