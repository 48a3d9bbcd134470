package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playlist"
)

// Binder writes every change of the bound collections to the store. Write
// failures are logged; the collections keep their new state regardless.
type Binder struct {
	store *Store
	ctx   context.Context
	log   *zap.Logger

	mu      sync.Mutex
	cancels map[string]func()
	others  []func()
}

// NewBinder creates a binder. ctx bounds every write; log may be nil.
func NewBinder(ctx context.Context, store *Store, log *zap.Logger) *Binder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Binder{store: store, ctx: ctx, log: log, cancels: make(map[string]func())}
}

// BindQueue persists the queue's membership after each change.
func (b *Binder) BindQueue(q *playlist.Queue) {
	cancel := q.Events().Subscribe(func(playlist.Change) {
		ids := make([]int64, 0, q.Len())
		for _, t := range q.Tracks() {
			if id := t.ID(); id != 0 {
				ids = append(ids, id)
			}
		}
		if err := b.store.SaveQueue(b.ctx, ids); err != nil {
			b.log.Warn("save queue", zap.Error(err))
		}
	})
	b.mu.Lock()
	b.others = append(b.others, cancel)
	b.mu.Unlock()
}

// BindPlaylist persists a playlist's entries after each change.
func (b *Binder) BindPlaylist(p *playlist.Playlist) {
	cancel := p.Events().Subscribe(func(c playlist.Change) {
		if err := b.apply(c); err != nil {
			b.log.Warn("save playlist change",
				zap.String("playlist", c.Title),
				zap.Stringer("change", c.Kind),
				zap.Error(err))
		}
	})
	b.mu.Lock()
	if old, ok := b.cancels[p.Title()]; ok {
		old()
	}
	b.cancels[p.Title()] = cancel
	b.mu.Unlock()
}

// BindManager persists playlist creation, deletion and renaming, and binds
// every playlist m holds now or creates later.
func (b *Binder) BindManager(m *playlist.Manager) {
	for _, title := range m.Titles() {
		if p, ok := m.Get(title); ok {
			b.BindPlaylist(p)
		}
	}
	cancel := m.Events().Subscribe(func(e playlist.ManagerEvent) {
		var err error
		switch e.Kind {
		case playlist.PlaylistCreated:
			err = b.store.InsertPlaylist(b.ctx, e.Playlist.Title())
			b.BindPlaylist(e.Playlist)
		case playlist.PlaylistDeleted:
			err = b.store.DeletePlaylist(b.ctx, e.Playlist.Title())
			b.unbind(e.Playlist.Title())
		case playlist.PlaylistRenamed:
			err = b.store.RenamePlaylist(b.ctx, e.OldTitle, e.Playlist.Title())
			b.rekey(e.OldTitle, e.Playlist.Title())
		}
		if err != nil {
			b.log.Warn("save playlist registry", zap.String("playlist", e.Playlist.Title()), zap.Error(err))
		}
	})
	b.mu.Lock()
	b.others = append(b.others, cancel)
	b.mu.Unlock()
}

// Close stops every subscription.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.cancels {
		cancel()
	}
	for _, cancel := range b.others {
		cancel()
	}
	clear(b.cancels)
	b.others = nil
}

func (b *Binder) apply(c playlist.Change) error {
	switch c.Kind {
	case playlist.Added:
		return b.store.AddTrackToPlaylist(b.ctx, c.Title, title(c.Track))
	case playlist.Removed:
		return b.store.RemoveTrackFromPlaylist(b.ctx, c.Title, title(c.Track))
	case playlist.Cleared:
		return b.store.ClearPlaylist(b.ctx, c.Title)
	case playlist.Reordered:
		return b.store.MovePlaylistTrack(b.ctx, c.Title, c.From, c.To)
	}
	return nil
}

func (b *Binder) unbind(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.cancels[title]; ok {
		cancel()
		delete(b.cancels, title)
	}
}

func (b *Binder) rekey(oldTitle, newTitle string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.cancels[oldTitle]; ok {
		delete(b.cancels, oldTitle)
		b.cancels[newTitle] = cancel
	}
}

func title(t *library.Track) string {
	if t == nil {
		return ""
	}
	return t.Title()
}
