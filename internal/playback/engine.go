// Package playback implements the playback engine: the single owner of the
// audio session, the play/pause state machine, progress ticks, fades and the
// end-of-media continuation.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/player"
)

const (
	DefaultVolume       = 0.5
	DefaultFadeDuration = 15 * time.Second
	DefaultTickInterval = 100 * time.Millisecond
)

// Operation names carried by ErrorEvent.
const (
	OpLoad     = "load"
	OpPlayback = "playback"
)

// Speeds lists the accepted playback rates.
var Speeds = []float64{0.5, 0.7, 1.0, 1.5, 2.0}

var (
	ErrInvalidVolume  = errors.New("volume out of range [0,1]")
	ErrInvalidBalance = errors.New("balance out of range [-1,1]")
	ErrInvalidSpeed   = errors.New("unsupported speed")
	ErrNoTrack        = errors.New("no track")
	ErrClosed         = errors.New("engine closed")
)

// BackendError reports a source that could not be opened or played.
type BackendError struct {
	Op     string
	Source string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Continuation runs once when the loaded media plays to its end, or when
// Stop is called while it is registered.
type Continuation func()

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithFadeDuration sets the fade-in and fade-out length.
func WithFadeDuration(d time.Duration) Option {
	return func(e *Engine) { e.fadeLen = d }
}

// WithTickInterval sets the progress tick period.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tick = d }
}

// Snapshot is a copy of the engine state.
type Snapshot struct {
	Status      Status
	Volume      float64
	Balance     float64
	Speed       float64
	FadeEnabled bool
	Track       *library.Track
	Source      string
	Position    time.Duration
	Duration    time.Duration
}

// Engine plays one source at a time.
//
// Timer and backend goroutines never touch engine state. They post to the
// dispatcher, and each posted closure carries the session generation (and,
// for ticks, the seek epoch) it was scheduled under, so closures that
// arrive after a load, stop or seek are dropped.
type Engine struct {
	backend  player.Backend
	dispatch control.Dispatcher
	log      *zap.Logger
	fadeLen  time.Duration
	tick     time.Duration

	mu          sync.Mutex
	status      Status
	volume      float64
	balance     float64
	speed       float64
	fadeEnabled bool
	track       *library.Track
	source      string
	session     player.Session
	gen         uint64
	epoch       atomic.Uint64
	lastElapsed time.Duration
	fades       fades
	gain        float64
	tickStop    context.CancelFunc
	sessionDone chan struct{}
	closed      bool

	onEnd atomic.Pointer[Continuation]

	subsMu sync.RWMutex
	subs   []*Subscription
}

// New creates an idle engine.
func New(backend player.Backend, dispatch control.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		backend:  backend,
		dispatch: dispatch,
		log:      zap.NewNop(),
		fadeLen:  DefaultFadeDuration,
		tick:     DefaultTickInterval,
		volume:   DefaultVolume,
		speed:    1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load opens source, a file path or a stream URL, replacing whatever was
// loaded. On failure the engine stays Idle, an ErrorEvent is emitted and a
// *BackendError is returned.
func (e *Engine) Load(source string) error {
	return e.load(source, nil)
}

// LoadTrack loads t's file and reports t as the current track.
func (e *Engine) LoadTrack(t *library.Track) error {
	if t == nil {
		return ErrNoTrack
	}
	return e.load(t.FilePath(), t)
}

func (e *Engine) load(source string, t *library.Track) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	prev := e.resetLocked()
	e.onEnd.Store(nil)
	gen := e.gen
	e.mu.Unlock()

	// Opening may block on the network; the lock is not held.
	sess, err := e.backend.Open(source)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.closed {
		// A later load, stop or close happened meanwhile; it owns the engine.
		if sess != nil {
			_ = sess.Close()
		}
		return nil
	}
	if err != nil {
		e.log.Error("open source failed", zap.String("source", source), zap.Error(err))
		if prev != nil {
			e.emitTrack(TrackChange{Previous: prev})
		}
		e.emitError(ErrorEvent{Operation: OpLoad, Source: source, Err: err})
		return &BackendError{Op: OpLoad, Source: source, Err: err}
	}

	e.session = sess
	e.source = source
	e.track = t
	e.gain = math.NaN()
	sess.SetBalance(e.balance)
	sess.SetSpeed(e.speed)
	e.applyGainLocked(1)

	done := make(chan struct{})
	e.sessionDone = done
	go e.watch(sess, gen, done)

	e.setStatusLocked(StatusReady)
	e.emitTrack(TrackChange{Previous: prev, Current: t, Source: source})
	e.log.Debug("loaded", zap.String("source", source))
	return nil
}

// watch forwards the session's end and fault signals to the control loop.
func (e *Engine) watch(s player.Session, gen uint64, done <-chan struct{}) {
	select {
	case <-s.Finished():
		e.dispatch.Post(func() { e.finish(gen) })
	case err := <-s.Errors():
		e.dispatch.Post(func() { e.fail(gen, err) })
	case <-done:
	}
}

// Play starts a loaded source, or resumes a paused one.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.status {
	case StatusReady:
		pos := e.session.Position()
		if e.fadeEnabled {
			e.fades.begin(pos, e.session.Duration(), e.fadeLen)
		}
		e.applyGainLocked(e.fadeFactorLocked(pos))
	case StatusPaused:
	default:
		return
	}
	e.session.Play()
	e.setStatusLocked(StatusPlaying)
	e.startTickerLocked()
}

// Pause pauses playback. It does nothing unless playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPlaying {
		return
	}
	e.session.Pause()
	e.stopTickerLocked()
	e.setStatusLocked(StatusPaused)
}

// Resume continues paused playback. It does nothing unless paused.
func (e *Engine) Resume() {
	if e.Status() != StatusPaused {
		return
	}
	e.Play()
}

// Toggle switches between playing and paused, starting a ready source.
func (e *Engine) Toggle() {
	switch e.Status() {
	case StatusPlaying:
		e.Pause()
	case StatusPaused, StatusReady:
		e.Play()
	case StatusIdle:
	}
}

// Stop releases the session, returns to Idle and runs the registered
// continuation, if any. The slot is emptied before the continuation runs,
// so a continuation that stops again cannot run itself twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.status == StatusIdle {
		e.mu.Unlock()
		return
	}
	prev := e.resetLocked()
	e.emitTrack(TrackChange{Previous: prev})
	c := e.onEnd.Swap(nil)
	e.mu.Unlock()

	if c != nil {
		(*c)()
	}
}

// Reset is Stop without the continuation: it is discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnd.Store(nil)
	if e.status == StatusIdle {
		return
	}
	prev := e.resetLocked()
	e.emitTrack(TrackChange{Previous: prev})
}

// Seek jumps to pos, clamped to [0, duration]. Fades in flight are
// cancelled; a position inside the fade window starts a new fade-in.
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	dur := e.session.Duration()
	pos = max(pos, 0)
	if dur > 0 {
		pos = min(pos, dur)
	}
	if err := e.session.Seek(pos); err != nil {
		e.log.Warn("seek failed", zap.String("source", e.source), zap.Duration("pos", pos), zap.Error(err))
		return err
	}
	e.epoch.Add(1)
	e.lastElapsed = pos
	if e.fadeEnabled && e.status.IsActive() {
		e.fades.seek(pos, e.fadeLen)
	}
	e.applyGainLocked(e.fadeFactorLocked(pos))
	e.emitProgress(progressAt(pos, dur))
	return nil
}

// RegisterEndOfMedia sets the continuation, replacing any previous one
// without running it.
func (e *Engine) RegisterEndOfMedia(c Continuation) {
	if c == nil {
		e.onEnd.Store(nil)
		return
	}
	e.onEnd.Store(&c)
}

// SetVolume sets the target volume in [0,1].
func (e *Engine) SetVolume(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, v)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
	if e.session != nil {
		e.applyGainLocked(e.fadeFactorLocked(e.lastElapsed))
	}
	return nil
}

// SetBalance sets the stereo balance in [-1,1].
func (e *Engine) SetBalance(b float64) error {
	if math.IsNaN(b) || b < -1 || b > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidBalance, b)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balance = b
	if e.session != nil {
		e.session.SetBalance(b)
	}
	return nil
}

// SetSpeed sets the playback rate to one of Speeds.
func (e *Engine) SetSpeed(s float64) error {
	if !slices.Contains(Speeds, s) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, s)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = s
	if e.session != nil {
		e.session.SetSpeed(s)
	}
	return nil
}

// SetFadeEnabled turns fades on or off. Turning them off mid-track restores
// the full volume at once; turning them on mid-track only schedules the
// fade-out.
func (e *Engine) SetFadeEnabled(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fadeEnabled == on {
		return
	}
	e.fadeEnabled = on
	if e.session == nil {
		return
	}
	if !on {
		e.fades.cancel()
		e.applyGainLocked(1)
		return
	}
	if e.status.IsActive() {
		dur := e.session.Duration()
		if dur > e.fadeLen && e.lastElapsed < dur-e.fadeLen {
			e.fades.out = &ramp{start: dur - e.fadeLen, end: dur, from: 1, to: 0}
		}
	}
}

// ToggleFade flips the fade setting and returns the new value.
func (e *Engine) ToggleFade() bool {
	on := !e.FadeEnabled()
	e.SetFadeEnabled(on)
	return on
}

// Status returns the current status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

func (e *Engine) FadeEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fadeEnabled
}

// Track returns the loaded track, nil when idle or playing a bare source.
func (e *Engine) Track() *library.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.track
}

// Position returns the playback position, clamped to the duration.
func (e *Engine) Position() time.Duration {
	return e.Progress().Elapsed
}

// Duration returns the loaded source's length, 0 if unknown or idle.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.Duration()
}

// Progress returns the current position as a Progress value.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Progress{}
	}
	return progressAt(e.session.Position(), e.session.Duration())
}

// Snapshot returns a copy of the whole state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Status:      e.status,
		Volume:      e.volume,
		Balance:     e.balance,
		Speed:       e.speed,
		FadeEnabled: e.fadeEnabled,
		Track:       e.track,
		Source:      e.source,
	}
	if e.session != nil {
		p := progressAt(e.session.Position(), e.session.Duration())
		s.Position, s.Duration = p.Elapsed, p.Duration
	}
	return s
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close releases the session and ends every subscription.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.onEnd.Store(nil)
	if e.status != StatusIdle {
		prev := e.resetLocked()
		e.emitTrack(TrackChange{Previous: prev})
	}
	e.mu.Unlock()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()
	return nil
}

// finish handles end of media on the control goroutine.
func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.status == StatusIdle {
		e.mu.Unlock()
		return
	}
	if dur := e.session.Duration(); dur > 0 {
		e.emitProgress(progressAt(dur, dur))
	}
	e.log.Debug("end of media", zap.String("source", e.source))
	prev := e.resetLocked()
	e.emitTrack(TrackChange{Previous: prev})
	c := e.onEnd.Swap(nil)
	e.mu.Unlock()

	if c != nil {
		(*c)()
	}
}

// fail handles a backend fault on the control goroutine.
func (e *Engine) fail(gen uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.status == StatusIdle {
		return
	}
	source := e.source
	e.log.Error("playback failed", zap.String("source", source), zap.Error(err))
	e.onEnd.Store(nil)
	prev := e.resetLocked()
	e.emitTrack(TrackChange{Previous: prev})
	e.emitError(ErrorEvent{Operation: OpPlayback, Source: source, Err: err})
}

func (e *Engine) onTick(gen, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || epoch != e.epoch.Load() || e.status != StatusPlaying {
		return
	}
	p := progressAt(max(e.session.Position(), e.lastElapsed), e.session.Duration())
	e.lastElapsed = p.Elapsed
	e.applyGainLocked(e.fadeFactorLocked(p.Elapsed))
	e.emitProgress(p)
}

func (e *Engine) startTickerLocked() {
	e.stopTickerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	e.tickStop = cancel
	gen := e.gen
	go func() {
		t := time.NewTicker(e.tick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				epoch := e.epoch.Load()
				if !e.dispatch.Post(func() { e.onTick(gen, epoch) }) {
					return
				}
			}
		}
	}()
}

func (e *Engine) stopTickerLocked() {
	if e.tickStop != nil {
		e.tickStop()
		e.tickStop = nil
	}
}

// resetLocked tears the session down and returns to Idle. It returns the
// track that was loaded. The continuation slot is left to the caller.
func (e *Engine) resetLocked() *library.Track {
	e.stopTickerLocked()
	e.fades.cancel()
	if e.sessionDone != nil {
		close(e.sessionDone)
		e.sessionDone = nil
	}
	if e.session != nil {
		if err := e.session.Close(); err != nil {
			e.log.Warn("close session", zap.String("source", e.source), zap.Error(err))
		}
		e.session = nil
	}
	e.gen++
	e.epoch.Add(1)
	e.lastElapsed = 0

	prev := e.track
	e.track = nil
	e.source = ""
	e.setStatusLocked(StatusIdle)
	return prev
}

func (e *Engine) fadeFactorLocked(pos time.Duration) float64 {
	if !e.fadeEnabled {
		return 1
	}
	return e.fades.factor(pos)
}

func (e *Engine) applyGainLocked(factor float64) {
	g := e.volume * factor
	if g == e.gain {
		return
	}
	e.gain = g
	e.session.SetVolume(g)
}

func (e *Engine) setStatusLocked(s Status) {
	if e.status == s {
		return
	}
	prev := e.status
	e.status = s
	e.emitState(StateChange{Previous: prev, Current: s})
}

func progressAt(pos, dur time.Duration) Progress {
	pos = max(pos, 0)
	if dur <= 0 {
		return Progress{Elapsed: pos}
	}
	pos = min(pos, dur)
	return Progress{
		Fraction: min(float64(pos)/float64(dur), 1),
		Elapsed:  pos,
		Duration: dur,
	}
}

func (e *Engine) emitState(ev StateChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, s := range e.subs {
		s.sendState(ev)
	}
}

func (e *Engine) emitTrack(ev TrackChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, s := range e.subs {
		s.sendTrack(ev)
	}
}

// emitProgress stamps ev with the loaded track. Callers hold e.mu.
func (e *Engine) emitProgress(ev Progress) {
	ev.Track = e.track
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, s := range e.subs {
		s.sendProgress(ev)
	}
}

func (e *Engine) emitError(ev ErrorEvent) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, s := range e.subs {
		s.sendError(ev)
	}
}
