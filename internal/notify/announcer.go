package notify

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/event"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/sequencer"
)

// Announcer turns player events into desktop notifications. Now-playing
// notices replace each other so only the latest one stays on screen.
type Announcer struct {
	notifier Notifier
	log      *zap.Logger

	mu     sync.Mutex
	lastID uint32
}

// NewAnnouncer creates an announcer sending through n. log may be nil.
func NewAnnouncer(n Notifier, log *zap.Logger) *Announcer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Announcer{notifier: n, log: log}
}

// Watch announces every track a sequencer starts. The returned function
// stops watching.
func (a *Announcer) Watch(bus *event.Bus[sequencer.NowPlaying]) func() {
	return bus.Subscribe(func(np sequencer.NowPlaying) {
		a.NowPlaying(np.Track)
	})
}

// NowPlaying shows t, replacing the previous now-playing notice. A nil
// track withdraws it.
func (a *Announcer) NowPlaying(t *library.Track) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t == nil {
		if a.lastID != 0 {
			if err := a.notifier.Close(a.lastID); err != nil {
				a.log.Debug("close notification", zap.Error(err))
			}
			a.lastID = 0
		}
		return
	}

	id, err := a.notifier.Notify(Notice{
		Kind:       KindNowPlaying,
		Title:      t.Title(),
		Body:       trackBody(t),
		Icon:       FindAlbumArtPath(t),
		ReplacesID: a.lastID,
	})
	if err != nil {
		a.log.Debug("now playing notification", zap.Error(err))
		return
	}
	a.lastID = id
}

// Problem reports a failed op as a separate notice. The kind, and with it
// how loudly the notice shows, follows from err.
func (a *Announcer) Problem(title string, op errmsg.Op, err error) {
	a.send(Notice{
		Kind:  KindOf(err),
		Title: title,
		Body:  errmsg.FormatHint(op, err),
	})
}

// Follow reports the engine's backend errors from sub until ctx is done or
// the subscription closes.
func (a *Announcer) Follow(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case ev := <-sub.Error:
			a.send(Notice{
				Kind:  KindPlayback,
				Title: sourceTitle(ev.Source),
				Body:  errmsg.FormatHint(errmsg.OpPlaybackStart, ev.Err),
			})
		}
	}
}

func (a *Announcer) send(n Notice) {
	if _, err := a.notifier.Notify(n); err != nil {
		a.log.Debug("problem notification", zap.Stringer("kind", n.Kind), zap.Error(err))
	}
}

// sourceTitle names a source by its file name. Stream URLs are kept whole.
func sourceTitle(src string) string {
	if src == "" {
		return "Playback"
	}
	if strings.Contains(src, "://") {
		return src
	}
	return filepath.Base(src)
}

func trackBody(t *library.Track) string {
	parts := make([]string, 0, 2)
	if v := t.Artist(); v != "" {
		parts = append(parts, v)
	}
	if v := t.Album(); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " - ")
}
