package playlist

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/llehouerou/singalong/internal/event"
)

var (
	ErrEmptyTitle = errors.New("playlist title is empty")
	ErrExists     = errors.New("playlist already exists")
	ErrNotFound   = errors.New("playlist not found")
)

// ManagerEventKind identifies a registry change.
type ManagerEventKind int

const (
	PlaylistCreated ManagerEventKind = iota
	PlaylistDeleted
	PlaylistRenamed
)

// ManagerEvent is published when the set of playlists changes.
type ManagerEvent struct {
	Kind     ManagerEventKind
	Playlist *Playlist
	OldTitle string // set for PlaylistRenamed
}

// Manager keeps the user's playlists keyed by title.
type Manager struct {
	mu        sync.RWMutex
	playlists map[string]*Playlist
	opts      []Option
	bus       *event.Bus[ManagerEvent]
}

// NewManager creates an empty registry. opts apply to every playlist it creates.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		playlists: make(map[string]*Playlist),
		opts:      opts,
		bus:       event.NewBus[ManagerEvent](),
	}
}

// Events returns the bus carrying registry changes.
func (m *Manager) Events() *event.Bus[ManagerEvent] {
	return m.bus
}

// Create adds a new empty playlist.
func (m *Manager) Create(title string) (*Playlist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	m.mu.Lock()
	if _, ok := m.playlists[title]; ok {
		m.mu.Unlock()
		return nil, ErrExists
	}
	p := New(title, m.opts...)
	m.playlists[title] = p
	m.mu.Unlock()

	m.bus.Publish(ManagerEvent{Kind: PlaylistCreated, Playlist: p})
	return p, nil
}

// Get returns the playlist with the given title.
func (m *Manager) Get(title string) (*Playlist, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.playlists[title]
	return p, ok
}

// Delete removes a playlist from the registry.
func (m *Manager) Delete(title string) error {
	m.mu.Lock()
	p, ok := m.playlists[title]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.playlists, title)
	m.mu.Unlock()

	m.bus.Publish(ManagerEvent{Kind: PlaylistDeleted, Playlist: p})
	return nil
}

// Rename changes a playlist's title.
func (m *Manager) Rename(oldTitle, newTitle string) error {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return ErrEmptyTitle
	}
	m.mu.Lock()
	p, ok := m.playlists[oldTitle]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if _, taken := m.playlists[newTitle]; taken {
		m.mu.Unlock()
		return ErrExists
	}
	delete(m.playlists, oldTitle)
	m.playlists[newTitle] = p
	p.rename(newTitle)
	m.mu.Unlock()

	m.bus.Publish(ManagerEvent{Kind: PlaylistRenamed, Playlist: p, OldTitle: oldTitle})
	return nil
}

// Titles returns the playlist titles in alphabetical order.
func (m *Manager) Titles() []string {
	m.mu.RLock()
	titles := make([]string, 0, len(m.playlists))
	for t := range m.playlists {
		titles = append(titles, t)
	}
	m.mu.RUnlock()
	slices.Sort(titles)
	return titles
}

// Len returns the number of playlists.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.playlists)
}
