package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/singalong/internal/changes"
	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lrclib"
	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/player"
	"github.com/llehouerou/singalong/internal/sequencer"
)

const twoLines = "[00:10.00]First line\n[00:15.50]Second line"

type stubRemote struct {
	calls  atomic.Int32
	synced string
	err    error
}

func (s *stubRemote) Synced(context.Context, lrclib.Query) (string, error) {
	s.calls.Add(1)
	return s.synced, s.err
}

func singer(id int64) *library.Track {
	t := library.NewTrack(library.Fields{Title: "Song", Artist: "Singer", Duration: 180})
	t.SetID(id)
	return t
}

type karaokeRig struct {
	karaoke *Karaoke
	sync    *lyrics.Synchronizer
	tracker *changes.Tracker
	loop    *control.Loop
	stop    func()
}

// newKaraokeRig must run inside a synctest bubble.
func newKaraokeRig(t *testing.T, remote lyrics.Remote) *karaokeRig {
	loop := control.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	r := lyrics.NewResolver(lyrics.Layout{Dir: t.TempDir()}, remote)
	f := lyrics.NewFetcher(r, loop)
	s := lyrics.NewSynchronizer()
	tracker := changes.New()
	return &karaokeRig{
		karaoke: NewKaraoke(ctx, f, s, tracker, nil),
		sync:    s,
		tracker: tracker,
		loop:    loop,
		stop:    func() { f.Cancel(); f.Wait(); cancel() },
	}
}

func TestKaraoke_LoadsRemoteLyricsAndMarksTrackDirty(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newKaraokeRig(t, &stubRemote{synced: twoLines})
		defer r.stop()
		tr := singer(5)

		r.loop.Post(func() { r.karaoke.TrackStarted(tr) })
		synctest.Wait()

		doc := r.sync.Document()
		require.Len(t, doc.Lines, 2)
		assert.Same(t, tr, r.sync.Track())
		assert.NotEmpty(t, tr.TimedLyricsPath())
		assert.True(t, r.tracker.Contains(5), "new lyrics path should mark the track dirty")

		r.loop.Post(func() { r.karaoke.Progress(playback.Progress{Elapsed: 12 * time.Second, Track: tr}) })
		synctest.Wait()
		assert.Equal(t, 0, r.sync.Index())

		r.loop.Post(func() { r.karaoke.Progress(playback.Progress{Elapsed: 16 * time.Second, Track: tr}) })
		synctest.Wait()
		assert.Equal(t, 1, r.sync.Index())
	})
}

func TestKaraoke_LocalHitLeavesTrackClean(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		remote := &stubRemote{synced: twoLines}
		r := newKaraokeRig(t, remote)
		defer r.stop()

		first := singer(5)
		r.loop.Post(func() { r.karaoke.TrackStarted(first) })
		synctest.Wait()
		r.tracker.Clear()

		// Same title: the file written for the first play is found locally.
		again := singer(6)
		again.SetTimedLyricsPath(first.TimedLyricsPath())
		r.loop.Post(func() { r.karaoke.TrackStarted(again) })
		synctest.Wait()

		assert.Len(t, r.sync.Document().Lines, 2)
		assert.Equal(t, int32(1), remote.calls.Load())
		assert.False(t, r.tracker.Contains(6))
	})
}

func TestKaraoke_NilTrackClears(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newKaraokeRig(t, &stubRemote{synced: twoLines})
		defer r.stop()

		r.loop.Post(func() { r.karaoke.TrackStarted(singer(1)) })
		synctest.Wait()
		require.False(t, r.sync.Document().IsEmpty())

		r.loop.Post(func() { r.karaoke.TrackStarted(nil) })
		synctest.Wait()
		assert.True(t, r.sync.Document().IsEmpty())
		assert.Nil(t, r.sync.Track())
	})
}

func TestKaraoke_ReportsDownloadFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newKaraokeRig(t, &stubRemote{err: &lrclib.DownloadError{Err: errors.New("offline")}})
		defer r.stop()

		var reported error
		r.karaoke.OnError = func(_ *library.Track, err error) { reported = err }

		r.loop.Post(func() { r.karaoke.TrackStarted(singer(1)) })
		synctest.Wait()

		require.Error(t, reported)
		assert.ErrorIs(t, reported, lyrics.ErrDownload)
		assert.True(t, r.sync.Document().IsEmpty())
	})
}

func TestKaraoke_WatchFollowsSequencers(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newKaraokeRig(t, &stubRemote{synced: twoLines})
		defer r.stop()
		queueBus := event.NewBus[sequencer.NowPlaying]()
		playlistBus := event.NewBus[sequencer.NowPlaying]()

		cancel := r.karaoke.Watch(queueBus, playlistBus)
		tr := singer(2)
		r.loop.Post(func() { playlistBus.Publish(sequencer.NowPlaying{Track: tr}) })
		synctest.Wait()
		assert.Same(t, tr, r.sync.Track())

		cancel()
		r.loop.Post(func() { queueBus.Publish(sequencer.NowPlaying{}) })
		synctest.Wait()
		assert.Same(t, tr, r.sync.Track(), "cancelled watch must not clear")
	})
}

func TestKaraoke_ProgressOfPreviousTrackIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newKaraokeRig(t, &stubRemote{synced: twoLines})
		defer r.stop()
		old, cur := singer(1), singer(2)

		r.loop.Post(func() { r.karaoke.TrackStarted(cur) })
		synctest.Wait()
		require.Len(t, r.sync.Document().Lines, 2)

		r.loop.Post(func() { r.karaoke.Progress(playback.Progress{Elapsed: 16 * time.Second, Track: old}) })
		synctest.Wait()
		assert.Equal(t, -1, r.sync.Index(), "tick of the previous track moved the highlight")

		r.loop.Post(func() { r.karaoke.Progress(playback.Progress{Elapsed: 12 * time.Second, Track: cur}) })
		synctest.Wait()
		assert.Equal(t, 0, r.sync.Index())
	})
}

func TestKaraoke_FollowDropsTicksQueuedBeforeTrackChange(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newKaraokeRig(t, &stubRemote{synced: twoLines})
		defer r.stop()
		b := player.NewMockBackend(time.Minute)
		e := playback.New(b, r.loop)
		defer func() { _ = e.Close() }()
		sub := e.Subscribe()

		old, cur := singer(1), singer(2)
		require.NoError(t, e.LoadTrack(old))
		require.NoError(t, e.Seek(16*time.Second))
		// The tick above is still buffered when the next track's lyrics arrive.
		require.NoError(t, e.LoadTrack(cur))
		r.loop.Post(func() { r.karaoke.TrackStarted(cur) })
		synctest.Wait()
		require.Len(t, r.sync.Document().Lines, 2)

		go r.karaoke.Follow(t.Context(), sub, r.loop)
		synctest.Wait()
		assert.Equal(t, -1, r.sync.Index())

		require.NoError(t, e.Seek(12*time.Second))
		synctest.Wait()
		assert.Equal(t, 0, r.sync.Index())
	})
}
