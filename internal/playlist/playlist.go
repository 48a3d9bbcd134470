package playlist

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/llehouerou/singalong/internal/library"
)

// Playlist is a user playlist. Playing it never removes tracks.
//
// With shuffle on, Order returns a permutation computed the first time it is
// needed and kept until the track set changes or shuffle is turned off. The
// stored order is never touched by shuffling, so turning it off gives back
// the order from before.
type Playlist struct {
	*Collection

	rng          *rand.Rand
	shuffle      bool
	shuffled     []*library.Track
	shuffledFrom uint64
}

// Option configures a Playlist.
type Option func(*Playlist)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(p *Playlist) { p.rng = r }
}

// New creates an empty playlist.
func New(title string, opts ...Option) *Playlist {
	p := &Playlist{Collection: newCollection(title)}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		seed := uint64(time.Now().UnixNano()) //nolint:gosec // shuffle only
		p.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return p
}

// rename changes the title. Only the manager calls it so the registry key
// stays in sync.
func (p *Playlist) rename(title string) {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
}

// Reorder moves the track at from to position to. Out-of-range or equal
// indices leave the playlist untouched and publish nothing.
func (p *Playlist) Reorder(from, to int) bool {
	p.mu.Lock()
	n := len(p.tracks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		p.mu.Unlock()
		return false
	}
	t := p.tracks[from]
	p.tracks = slices.Delete(p.tracks, from, from+1)
	p.tracks = slices.Insert(p.tracks, to, t)
	title := p.title
	p.mu.Unlock()

	p.bus.Publish(Change{Kind: Reordered, Title: title, Track: t, From: from, To: to})
	return true
}

// SetShuffle turns the shuffled view on or off. Turning it on again after
// turning it off draws a new permutation.
func (p *Playlist) SetShuffle(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shuffle == on {
		return
	}
	p.shuffle = on
	p.shuffled = nil
}

// Shuffled reports whether the shuffled view is active.
func (p *Playlist) Shuffled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.shuffle
}

// Order returns the traversal order: the stored order, or the shuffled view.
func (p *Playlist) Order() []*library.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.shuffle {
		return slices.Clone(p.tracks)
	}
	if p.shuffled == nil || p.shuffledFrom != p.version {
		p.shuffled = slices.Clone(p.tracks)
		p.rng.Shuffle(len(p.shuffled), func(i, j int) {
			p.shuffled[i], p.shuffled[j] = p.shuffled[j], p.shuffled[i]
		})
		p.shuffledFrom = p.version
	}
	return slices.Clone(p.shuffled)
}
