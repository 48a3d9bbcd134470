package lyrics

import (
	"context"
	"sync"

	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/library"
)

// Outcome is delivered once a fetch completes.
type Outcome struct {
	Track  *library.Track
	Result Result
	Err    error
}

// Fetcher resolves lyrics without blocking the control goroutine. Local
// files are read in place; the cache and remote lookup run in the
// background and their outcome is posted back through the dispatcher. A
// new fetch supersedes the previous one, whose outcome is never delivered.
type Fetcher struct {
	resolver *Resolver
	dispatch control.Dispatcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFetcher creates a fetcher posting outcomes through dispatch.
func NewFetcher(r *Resolver, dispatch control.Dispatcher) *Fetcher {
	return &Fetcher{resolver: r, dispatch: dispatch}
}

// Fetch resolves t's lyrics and hands the outcome to done on the control
// goroutine. It must be called from the control goroutine.
func (f *Fetcher) Fetch(ctx context.Context, t *library.Track, done func(Outcome)) {
	seq := f.supersede()

	if res, ok := f.resolver.ResolveLocal(t); ok {
		done(Outcome{Track: t, Result: res})
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		p := f.resolver.Lookup(ctx, t)
		f.dispatch.Post(func() {
			if !f.isCurrent(seq) {
				return
			}
			res, err := f.resolver.Apply(t, p)
			done(Outcome{Track: t, Result: res, Err: err})
		})
	}()
}

// Cancel abandons the fetch in flight, if any.
func (f *Fetcher) Cancel() {
	f.supersede()
}

// Wait blocks until background lookups have returned.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

func (f *Fetcher) supersede() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq++
	return f.seq
}

func (f *Fetcher) isCurrent(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq == seq
}
