package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/changes"
	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/sequencer"
)

// Karaoke keeps the lyrics synchronizer in step with what plays: it
// fetches the document when a track starts and moves the highlight on every
// progress tick. Its handlers run on the control goroutine.
type Karaoke struct {
	ctx     context.Context
	fetcher *lyrics.Fetcher
	sync    *lyrics.Synchronizer
	tracker *changes.Tracker
	log     *zap.Logger

	// OnError, when set, receives lookup failures worth telling the user.
	OnError func(t *library.Track, err error)
}

// NewKaraoke creates the lyrics coordinator. ctx bounds every remote
// lookup; log may be nil.
func NewKaraoke(ctx context.Context, f *lyrics.Fetcher, s *lyrics.Synchronizer, tracker *changes.Tracker, log *zap.Logger) *Karaoke {
	if log == nil {
		log = zap.NewNop()
	}
	return &Karaoke{ctx: ctx, fetcher: f, sync: s, tracker: tracker, log: log}
}

// Watch follows the now-playing announcements of every given sequencer.
// The returned function stops watching.
func (k *Karaoke) Watch(buses ...*event.Bus[sequencer.NowPlaying]) func() {
	cancels := make([]func(), 0, len(buses))
	for _, b := range buses {
		cancels = append(cancels, b.Subscribe(func(np sequencer.NowPlaying) {
			k.TrackStarted(np.Track)
		}))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// TrackStarted loads t's lyrics, or clears them when t is nil.
func (k *Karaoke) TrackStarted(t *library.Track) {
	k.sync.Clear()
	if t == nil {
		k.fetcher.Cancel()
		return
	}

	before := t.TimedLyricsPath()
	k.fetcher.Fetch(k.ctx, t, func(o lyrics.Outcome) {
		if o.Err != nil {
			k.log.Warn("lyrics lookup", zap.String("track", o.Track.String()), zap.Error(o.Err))
			if k.OnError != nil {
				k.OnError(o.Track, o.Err)
			}
		}
		if k.tracker != nil && o.Track.TimedLyricsPath() != before {
			k.tracker.Invalidate(o.Track.ID())
		}
		k.sync.SetDocument(o.Track, o.Result.Doc)
		k.log.Debug("lyrics loaded",
			zap.String("track", o.Track.String()),
			zap.Stringer("source", o.Result.Source),
			zap.Int("lines", len(k.sync.Document().Lines)))
	})
}

// Progress moves the highlight to p's elapsed time. Ticks of a track other
// than the one whose lyrics are held were queued before a track change and
// are dropped.
func (k *Karaoke) Progress(p playback.Progress) {
	if !library.Same(p.Track, k.sync.Track()) {
		return
	}
	k.sync.Update(p.Elapsed)
}

// Follow forwards progress events from sub to the control goroutine until
// ctx is done or the subscription closes.
func (k *Karaoke) Follow(ctx context.Context, sub *playback.Subscription, dispatch control.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case p := <-sub.Progress:
			if !dispatch.Post(func() { k.Progress(p) }) {
				return
			}
		}
	}
}
