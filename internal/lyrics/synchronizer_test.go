package lyrics

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lrclib"
)

func TestSynchronizer_PublishesLineChanges(t *testing.T) {
	s := NewSynchronizer()
	var got []int
	s.Events().Subscribe(func(c LineChange) { got = append(got, c.Index) })
	tr := newTrack()
	s.SetDocument(tr, syncedDoc())

	for _, pos := range []time.Duration{0, 500 * time.Millisecond, time.Second, 1100 * time.Millisecond, 2 * time.Second, 9 * time.Second} {
		s.Update(pos)
	}

	assert.Equal(t, []int{0, 1, 3}, got)
	next, ok := s.Next()
	assert.False(t, ok, "Next() after the last line = %+v", next)

	s.SetDocument(nil, nil)
	assert.Equal(t, []int{0, 1, 3, -1}, got)
	assert.True(t, s.Document().IsEmpty())
}

func TestSynchronizer_Next(t *testing.T) {
	s := NewSynchronizer()
	s.SetDocument(newTrack(), syncedDoc())

	line, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "a", line.Text)

	s.Update(2500 * time.Millisecond)
	line, ok = s.Next()
	require.True(t, ok)
	assert.Equal(t, "c", line.Text)
}

type gatedRemote struct {
	started chan struct{}
}

func (g *gatedRemote) Synced(ctx context.Context, _ lrclib.Query) (string, error) {
	close(g.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestFetcher_DeliversRemoteOutcome(t *testing.T) {
	r := NewResolver(Layout{Dir: t.TempDir()}, &stubRemote{synced: "[00:01.00]Hi"})
	f := NewFetcher(r, &control.Inline{})
	tr := newTrack()

	outcomes := make(chan Outcome, 1)
	f.Fetch(t.Context(), tr, func(o Outcome) { outcomes <- o })
	f.Wait()

	o := <-outcomes
	require.NoError(t, o.Err)
	assert.Same(t, tr, o.Track)
	assert.Equal(t, SourceRemote, o.Result.Source)
	assert.Equal(t, o.Result.Path, tr.TimedLyricsPath())
}

func TestFetcher_LocalOutcomeIsImmediate(t *testing.T) {
	layout := Layout{Dir: t.TempDir()}
	tr := newTrack()
	require.NoError(t, os.WriteFile(layout.PlainPath(tr.Title()), []byte("words\n"), 0o644))
	f := NewFetcher(NewResolver(layout, nil), &control.Inline{})

	var got *Outcome
	f.Fetch(t.Context(), tr, func(o Outcome) { got = &o })

	require.NotNil(t, got)
	assert.Equal(t, SourceLocalPlain, got.Result.Source)
}

func TestFetcher_NewFetchSupersedesPrevious(t *testing.T) {
	dir := t.TempDir()
	layout := Layout{Dir: dir}
	gate := &gatedRemote{started: make(chan struct{})}
	f := NewFetcher(NewResolver(layout, gate), &control.Inline{})

	slow := newTrack()
	var delivered []*library.Track
	f.Fetch(t.Context(), slow, func(o Outcome) { delivered = append(delivered, o.Track) })
	<-gate.started

	fast := library.NewTrack(library.Fields{Title: "Local"})
	require.NoError(t, os.WriteFile(layout.PlainPath("Local"), []byte("here\n"), 0o644))
	f.Fetch(t.Context(), fast, func(o Outcome) { delivered = append(delivered, o.Track) })
	f.Wait()

	require.Len(t, delivered, 1)
	assert.Same(t, fast, delivered[0])
}
