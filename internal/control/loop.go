// Package control provides the single goroutine that owns playback state.
// Timers, backend signals and finished network lookups never mutate state
// themselves; they post a closure here.
package control

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Do once the loop has shut down.
var ErrStopped = errors.New("control loop stopped")

const queueSize = 256

// Dispatcher runs closures on the control goroutine.
type Dispatcher interface {
	// Post schedules fn and returns immediately. It reports false if fn
	// will never run.
	Post(fn func()) bool
}

// Loop is a Dispatcher backed by one goroutine draining a queue.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes posted closures in order until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post implements Dispatcher.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Inline is a Dispatcher that runs closures immediately on the caller's
// goroutine, serialised by a mutex. It suits tests and command-line tools
// that have no long-lived control goroutine.
type Inline struct {
	mu sync.Mutex
}

// Post implements Dispatcher.
func (d *Inline) Post(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
	return true
}

var (
	_ Dispatcher = (*Loop)(nil)
	_ Dispatcher = (*Inline)(nil)
)
