package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/app"
	"github.com/llehouerou/singalong/internal/config"
	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/logging"
	"github.com/llehouerou/singalong/internal/stderr"
	"github.com/llehouerou/singalong/internal/ui/nowplaying"
)

// opError renders as a user-facing sentence and unwraps to its cause.
type opError struct {
	op  errmsg.Op
	err error
}

func (e *opError) Error() string { return errmsg.FormatHint(e.op, e.err) }
func (e *opError) Unwrap() error { return e.err }

func fail(op errmsg.Op, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// session is one command's running services plus its log file.
type session struct {
	*app.Services
	closeLog func() error
}

func (o *options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		if _, statErr := os.Stat(o.configPath); statErr != nil {
			return nil, statErr
		}
		cfg, err = config.LoadFiles(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// openSession starts the services. Interactive sessions keep the console
// free for the terminal UI and may register on the desktop bus.
func openSession(cmd *cobra.Command, o *options, interactive bool) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fail(errmsg.OpInitialize, err)
	}

	lc := logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
	if o.verbose && !interactive {
		lc.Console = cmd.ErrOrStderr()
	}
	log, closeLog, err := logging.New(lc)
	if err != nil {
		return nil, fail(errmsg.OpInitialize, err)
	}

	services, err := app.New(cmd.Context(), cfg, app.Options{
		Log:      log.With(zap.String("command", cmd.Name())),
		Headless: o.headless || !interactive,
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return &session{Services: services, closeLog: closeLog}, nil
}

func withSession(cmd *cobra.Command, o *options, interactive bool, fn func(*session) error) (err error) {
	s, err := openSession(cmd, o, interactive)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close())
	}()
	return fn(s)
}

func (s *session) close() error {
	err := s.Services.Close()
	if cerr := s.closeLog(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

// call runs fn on the control goroutine and returns its error.
func (s *session) call(fn func() error) error {
	var ferr error
	if err := s.Do(func() { ferr = fn() }); err != nil {
		return err
	}
	return ferr
}

// addTracks adds every file to the library, in order.
func (s *session) addTracks(paths []string) ([]*library.Track, error) {
	tracks := make([]*library.Track, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%s '%s': %w", errmsg.OpTrackAdd, p, err)
		}
		var t *library.Track
		if err := s.call(func() error {
			var aerr error
			t, aerr = s.AddTrack(s.Context(), abs)
			return aerr
		}); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// runTUI runs start on the control goroutine, then shows the now-playing
// screen until the user quits.
func (s *session) runTUI(start func(t *app.Transport) error) error {
	capture, err := stderr.Start(func(line string) {
		s.Log.Warn("audio library output", zap.String("line", line))
	})
	if err != nil {
		s.Log.Warn("stderr capture unavailable", zap.Error(err))
	} else {
		defer capture.Stop()
	}

	if start != nil {
		if err := s.call(func() error { return start(s.Transport) }); err != nil {
			return err
		}
	}

	m := nowplaying.New(s.Transport, s.Lyrics, s.Do,
		nowplaying.WithErrors(s.Engine.Subscribe()),
		nowplaying.WithTick(s.Config.TickInterval()),
	)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
