// Package nowplaying is the terminal screen of the player: what plays, the
// progress bar and the lyrics, highlighted line by line.
package nowplaying

import (
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/keymap"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/ui"
	"github.com/llehouerou/singalong/internal/ui/styles"
)

const (
	defaultTick = 100 * time.Millisecond

	seekStep     = 5 * time.Second
	seekLongStep = 30 * time.Second
	volumeStep   = 0.05
	balanceStep  = 0.1
)

// Controller is the transport the screen drives.
type Controller interface {
	Toggle()
	Stop()
	Next()
	Previous()
	Seek(pos time.Duration) error
	SetVolume(v float64) error
	SetBalance(b float64) error
	SetSpeed(s float64) error
	ToggleFade() bool
	ToggleShuffle() bool
	CanShuffle() bool
	Snapshot() playback.Snapshot
}

// Lyrics is the source of the displayed sheet and highlighted line.
type Lyrics interface {
	Track() *library.Track
	Document() *lyrics.Document
	Index() int
}

// Runner executes fn on the goroutine owning playback state and waits for
// it.
type Runner func(fn func()) error

// TickMsg refreshes the screen from the engine.
type TickMsg time.Time

// ErrorMsg carries a failure to show in the status line.
type ErrorMsg struct {
	Op  errmsg.Op
	Err error
}

type doneMsg struct{}

type engineErrorMsg playback.ErrorEvent

// Option configures a Model.
type Option func(*Model)

// WithTick sets how often the screen refreshes.
func WithTick(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.tick = d
		}
	}
}

// WithErrors shows the engine's load and playback failures.
func WithErrors(sub *playback.Subscription) Option {
	return func(m *Model) { m.errors = sub }
}

// Model is the bubbletea model of the now-playing screen.
type Model struct {
	ui.Base
	ctl    Controller
	lyrics Lyrics
	run    Runner
	keys   *keymap.Resolver
	errors *playback.Subscription
	tick   time.Duration

	bar  progress.Model
	help help.Model

	snap   playback.Snapshot
	status string
}

// New creates the screen. Key presses become transport calls executed
// through run.
func New(ctl Controller, lyr Lyrics, run Runner, opts ...Option) *Model {
	t := styles.T()
	m := &Model{
		ctl:    ctl,
		lyrics: lyr,
		run:    run,
		keys:   keymap.NewResolver(keymap.Bindings),
		tick:   defaultTick,
		bar: progress.New(
			progress.WithGradient(string(t.Primary), string(t.Secondary)),
			progress.WithoutPercentage(),
		),
		help: help.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.listenErrors())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.bar.Width = max(msg.Width-barChrome, minBarWidth)
		m.help.Width = max(msg.Width-frameWidth, 0)
		return m, nil
	case TickMsg:
		m.refresh()
		return m, m.tickCmd()
	case doneMsg:
		m.refresh()
		return m, nil
	case ErrorMsg:
		m.status = errmsg.FormatHint(msg.Op, msg.Err)
		return m, nil
	case engineErrorMsg:
		m.status = errmsg.FormatHint(errmsg.OpPlaybackStart, msg.Err)
		return m, m.listenErrors()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// refresh reads the engine state and switches off the bindings that do
// nothing for it: seeking a stream or an empty player, shuffling outside a
// playlist.
func (m *Model) refresh() {
	m.snap = m.ctl.Snapshot()
	m.keys.SetLive(keymap.ContextPosition, m.snap.Duration > 0)
	m.keys.SetLive(keymap.ContextPlaylist, m.ctl.CanShuffle())
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// listenErrors waits for the next engine failure.
func (m *Model) listenErrors() tea.Cmd {
	sub := m.errors
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev := <-sub.Error:
			return engineErrorMsg(ev)
		case <-sub.Done:
			return nil
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.Resolve(msg.String())
	switch action {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case "":
		return m, nil
	}
	m.status = ""
	op, fn := m.intent(action)
	if fn == nil {
		return m, nil
	}
	return m, m.exec(op, fn)
}

// intent maps a transport action to the call it makes. The snapshot used
// for relative moves is read on the control goroutine.
func (m *Model) intent(a keymap.Action) (errmsg.Op, func(Controller) error) {
	none := func(f func(Controller)) func(Controller) error {
		return func(c Controller) error { f(c); return nil }
	}
	seekBy := func(d time.Duration) func(Controller) error {
		return func(c Controller) error {
			return c.Seek(max(c.Snapshot().Position+d, 0))
		}
	}

	switch a {
	case keymap.ActionPlayPause:
		return errmsg.OpPlaybackStart, none(Controller.Toggle)
	case keymap.ActionStop:
		return errmsg.OpPlaybackStart, none(Controller.Stop)
	case keymap.ActionNextTrack:
		return errmsg.OpPlaybackStart, none(Controller.Next)
	case keymap.ActionPrevTrack:
		return errmsg.OpPlaybackStart, none(Controller.Previous)
	case keymap.ActionToggleShuffle:
		return errmsg.OpPlaybackAdjust, none(func(c Controller) { c.ToggleShuffle() })
	case keymap.ActionSeekForward:
		return errmsg.OpPlaybackSeek, seekBy(seekStep)
	case keymap.ActionSeekBack:
		return errmsg.OpPlaybackSeek, seekBy(-seekStep)
	case keymap.ActionSeekForwardLong:
		return errmsg.OpPlaybackSeek, seekBy(seekLongStep)
	case keymap.ActionSeekBackLong:
		return errmsg.OpPlaybackSeek, seekBy(-seekLongStep)
	case keymap.ActionRestart:
		return errmsg.OpPlaybackSeek, func(c Controller) error { return c.Seek(0) }
	case keymap.ActionVolumeUp, keymap.ActionVolumeDown:
		step := volumeStep
		if a == keymap.ActionVolumeDown {
			step = -step
		}
		return errmsg.OpPlaybackAdjust, func(c Controller) error {
			return c.SetVolume(stepped(c.Snapshot().Volume, step, 0, 1))
		}
	case keymap.ActionBalanceLeft, keymap.ActionBalanceRight:
		step := balanceStep
		if a == keymap.ActionBalanceLeft {
			step = -step
		}
		return errmsg.OpPlaybackAdjust, func(c Controller) error {
			return c.SetBalance(stepped(c.Snapshot().Balance, step, -1, 1))
		}
	case keymap.ActionSpeedUp, keymap.ActionSpeedDown:
		dir := 1
		if a == keymap.ActionSpeedDown {
			dir = -1
		}
		return errmsg.OpPlaybackAdjust, func(c Controller) error {
			return c.SetSpeed(nextSpeed(c.Snapshot().Speed, dir))
		}
	case keymap.ActionToggleFade:
		return errmsg.OpPlaybackAdjust, none(func(c Controller) { c.ToggleFade() })
	}
	return "", nil
}

// exec runs fn on the control goroutine from a command, so the UI never
// waits on it.
func (m *Model) exec(op errmsg.Op, fn func(Controller) error) tea.Cmd {
	ctl, run := m.ctl, m.run
	return func() tea.Msg {
		var err error
		if rerr := run(func() { err = fn(ctl) }); rerr != nil {
			err = rerr
		}
		if err != nil {
			return ErrorMsg{Op: op, Err: err}
		}
		return doneMsg{}
	}
}

// stepped adds step to v, rounded to hundredths and clamped to [lo, hi].
func stepped(v, step, lo, hi float64) float64 {
	return min(max(math.Round((v+step)*100)/100, lo), hi)
}

// nextSpeed returns the supported speed dir steps from the one nearest to
// cur, staying within range.
func nextSpeed(cur float64, dir int) float64 {
	best := 0
	for i, s := range playback.Speeds {
		if math.Abs(s-cur) < math.Abs(playback.Speeds[best]-cur) {
			best = i
		}
	}
	i := min(max(best+dir, 0), len(playback.Speeds)-1)
	return playback.Speeds[i]
}
