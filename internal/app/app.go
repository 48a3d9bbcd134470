// Package app builds the running player: every service, constructed once
// and wired together explicitly.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/changes"
	"github.com/llehouerou/singalong/internal/config"
	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lrclib"
	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/mpris"
	"github.com/llehouerou/singalong/internal/notify"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/player"
	"github.com/llehouerou/singalong/internal/playlist"
	"github.com/llehouerou/singalong/internal/rediscache"
	"github.com/llehouerou/singalong/internal/sequencer"
	"github.com/llehouerou/singalong/internal/state"
)

// Options overrides collaborators New would otherwise build from the
// configuration. Zero fields take the configured default.
type Options struct {
	Log      *zap.Logger
	Backend  player.Backend
	Remote   lyrics.Remote
	Cache    lyrics.Cache
	Notifier notify.Notifier

	// Headless skips the D-Bus services (notifications and MPRIS).
	Headless bool
}

// Services holds every long-lived component of the player.
type Services struct {
	Config *config.Config
	Log    *zap.Logger

	Loop      *control.Loop
	Engine    *playback.Engine
	Transport *Transport

	Library   *library.Library
	Queue     *playlist.Queue
	Playlists *playlist.Manager
	Changes   *changes.Tracker
	Store     *state.Store

	QueueSequencer    *sequencer.Queue
	PlaylistSequencer *sequencer.Playlist

	Resolver *lyrics.Resolver
	Fetcher  *lyrics.Fetcher
	Lyrics   *lyrics.Synchronizer
	Karaoke  *Karaoke

	Announcer *notify.Announcer
	MPRIS     *mpris.Adapter

	binder  *state.Binder
	ctx     context.Context
	cancel  context.CancelFunc
	closers []func() error
	closed  bool
}

// New opens the store, restores the saved library, playlists and queue,
// and wires the engine, sequencers and lyrics pipeline. The control loop
// runs until Close.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Services, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Services{
		Config:    cfg,
		Log:       log,
		Loop:      control.NewLoop(),
		Library:   library.New(),
		Queue:     playlist.NewQueue(),
		Playlists: playlist.NewManager(),
		Changes:   changes.New(),
		Lyrics:    lyrics.NewSynchronizer(),
		ctx:       ctx,
		cancel:    cancel,
	}
	go s.Loop.Run(ctx)

	if err := s.openStore(); err != nil {
		_ = s.Close()
		return nil, err
	}

	backend := opts.Backend
	if backend == nil {
		backend = player.NewSpeaker(&http.Client{})
	}
	s.Engine = playback.New(backend, s.Loop,
		playback.WithLogger(log.Named("engine")),
		playback.WithFadeDuration(cfg.FadeDuration()),
		playback.WithTickInterval(cfg.TickInterval()),
	)
	s.closers = append(s.closers, s.Engine.Close)
	if err := s.Engine.SetVolume(cfg.Playback.Volume); err != nil {
		log.Warn("configured volume", zap.Error(err))
	}
	s.Engine.SetFadeEnabled(cfg.Playback.FadeEnabled)

	s.QueueSequencer = sequencer.NewQueue(s.Engine, s.Queue, log.Named("queue"))
	s.PlaylistSequencer = sequencer.NewPlaylist(s.Engine, log.Named("playlist"))
	s.Transport = NewTransport(s.Engine, s.QueueSequencer, s.PlaylistSequencer, s.Queue, log.Named("transport"))

	s.buildLyrics(opts)
	s.buildDesktop(opts)

	return s, nil
}

func (s *Services) openStore() error {
	store, err := state.Open(s.Config.Database)
	if err != nil {
		return fmt.Errorf("%s: %w", errmsg.OpInitialize, err)
	}
	s.Store = store
	s.closers = append(s.closers, store.Close)

	if err := store.Restore(s.ctx, s.Library, s.Playlists, s.Queue); err != nil {
		return fmt.Errorf("%s: %w", errmsg.OpLibraryLoad, err)
	}

	s.binder = state.NewBinder(s.ctx, store, s.Log.Named("store"))
	s.binder.BindQueue(s.Queue)
	s.binder.BindManager(s.Playlists)
	s.closers = append(s.closers, func() error {
		s.binder.Close()
		return nil
	})

	unwatch := s.Changes.Watch(s.Library)
	s.closers = append(s.closers, func() error { unwatch(); return nil })
	return nil
}

func (s *Services) buildLyrics(opts Options) {
	cfg := s.Config
	log := s.Log.Named("lyrics")

	remote := opts.Remote
	if remote == nil {
		remote = lrclib.New(lrclib.Config{
			BaseURL:  cfg.Lrclib.BaseURL,
			ClientID: cfg.Lrclib.ClientID,
			Timeout:  cfg.LrclibTimeout(),
		})
	}

	cache := opts.Cache
	if cache == nil && cfg.HasRedisConfig() {
		rc, err := rediscache.Connect(s.ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.RedisTTL(),
		})
		if err != nil {
			log.Warn("shared lyrics cache unavailable", zap.Error(err))
		} else {
			cache = rc
			s.closers = append(s.closers, rc.Close)
		}
	}
	if cache == nil {
		cache = lyrics.NewMemoryCache()
	}

	s.Resolver = lyrics.NewResolver(lyrics.Layout{Dir: cfg.LyricsDir}, remote,
		lyrics.WithCache(cache),
		lyrics.WithLogger(log),
	)
	s.Fetcher = lyrics.NewFetcher(s.Resolver, s.Loop)
	s.closers = append(s.closers, func() error {
		s.Fetcher.Cancel()
		s.Fetcher.Wait()
		return nil
	})

	s.Karaoke = NewKaraoke(s.ctx, s.Fetcher, s.Lyrics, s.Changes, log)
	unwatch := s.Karaoke.Watch(s.QueueSequencer.Events(), s.PlaylistSequencer.Events())
	s.closers = append(s.closers, func() error { unwatch(); return nil })

	sub := s.Engine.Subscribe()
	go s.Karaoke.Follow(s.ctx, sub, s.Loop)
}

func (s *Services) buildDesktop(opts Options) {
	cfg := s.Config
	if opts.Headless {
		return
	}

	if cfg.NotificationsEnabled() {
		n := opts.Notifier
		if n == nil {
			var err error
			if n, err = notify.New(); err != nil {
				s.Log.Warn("notifications unavailable", zap.Error(err))
			}
		}
		if n != nil {
			s.Announcer = notify.NewAnnouncer(n, s.Log.Named("notify"))
			unQueue := s.Announcer.Watch(s.QueueSequencer.Events())
			unPlaylist := s.Announcer.Watch(s.PlaylistSequencer.Events())
			s.closers = append(s.closers, func() error { unQueue(); unPlaylist(); return nil })
			s.Karaoke.OnError = func(t *library.Track, err error) {
				s.Announcer.Problem(t.String(), errmsg.OpLyricsFetch, err)
			}
			go s.Announcer.Follow(s.ctx, s.Engine.Subscribe())
		}
	}

	if cfg.MPRISEnabled() {
		adapter, err := mpris.New(s.Transport, s.Do, s.Log.Named("mpris"))
		if err != nil {
			s.Log.Warn("mpris unavailable", zap.Error(err))
			return
		}
		s.MPRIS = adapter
		s.closers = append(s.closers, adapter.Close)
	}
}

// Do runs fn on the control goroutine and waits for it to finish.
func (s *Services) Do(fn func()) error {
	return s.Loop.Do(s.ctx, fn)
}

// Post schedules fn on the control goroutine.
func (s *Services) Post(fn func()) bool {
	return s.Loop.Post(fn)
}

// Context returns the context bounding the services. It ends on Close.
func (s *Services) Context() context.Context {
	return s.ctx
}

// Binder returns the store binder keeping playlists and the queue saved.
func (s *Services) Binder() *state.Binder {
	return s.binder
}

// SyncTracks saves every track edited since the last sync.
func (s *Services) SyncTracks(ctx context.Context) (int, error) {
	n, err := s.Store.SyncTracks(ctx, s.Changes, s.Library)
	if err != nil {
		return n, fmt.Errorf("%s: %w", errmsg.OpTrackSync, err)
	}
	return n, nil
}

// AddTrack reads the tags of the file at path, saves it and adds it to the
// library. A path already in the library returns the existing track.
func (s *Services) AddTrack(ctx context.Context, path string) (*library.Track, error) {
	if t, ok := s.Library.FindByPath(path); ok {
		return t, nil
	}
	fields, err := library.ReadFields(path, player.MeasureDuration)
	if err != nil {
		return nil, fmt.Errorf("%s '%s': %w", errmsg.OpTrackAdd, path, err)
	}
	t := library.NewTrack(fields)
	if err := s.Store.InsertTrack(ctx, t); err != nil {
		return nil, fmt.Errorf("%s '%s': %w", errmsg.OpTrackSave, path, err)
	}
	s.Library.Add(t)
	return t, nil
}

// Close saves pending track edits and releases everything in reverse
// order of construction.
func (s *Services) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.Store != nil {
		if _, err := s.SyncTracks(context.WithoutCancel(s.ctx)); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	s.cancel()
	<-s.Loop.Done()
	return errors.Join(errs...)
}
