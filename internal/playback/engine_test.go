package playback

import (
	"context"
	"errors"
	"math"
	"testing"
	"testing/synctest"
	"time"

	"github.com/llehouerou/singalong/internal/control"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/player"
)

type harness struct {
	engine  *Engine
	backend *player.MockBackend
	sub     *Subscription
	stop    func()
}

// newHarness must be called inside a synctest bubble; call stop before the
// bubble ends so the ticker and loop goroutines exit.
func newHarness(d time.Duration, opts ...Option) *harness {
	b := player.NewMockBackend(d)
	loop := control.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	e := New(b, loop, opts...)
	return &harness{
		engine:  e,
		backend: b,
		sub:     e.Subscribe(),
		stop: func() {
			_ = e.Close()
			cancel()
		},
	}
}

func drainProgress(sub *Subscription) []Progress {
	var out []Progress
	for {
		select {
		case p := <-sub.Progress:
			out = append(out, p)
		default:
			return out
		}
	}
}

func drainStates(sub *Subscription) []Status {
	var out []Status
	for {
		select {
		case s := <-sub.StateChanged:
			out = append(out, s.Current)
		default:
			return out
		}
	}
}

func TestEngine_LoadPlayPauseResume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine

		e.Play()
		if e.Status() != StatusIdle {
			t.Fatalf("Play() while idle changed status to %v", e.Status())
		}

		if err := e.Load("/music/a.mp3"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if e.Status() != StatusReady {
			t.Errorf("Status() = %v, want Ready", e.Status())
		}
		e.Resume()
		if e.Status() != StatusReady {
			t.Errorf("Resume() from Ready changed status to %v", e.Status())
		}

		e.Play()
		e.Pause()
		e.Toggle()
		if e.Status() != StatusPlaying {
			t.Errorf("Status() = %v, want Playing", e.Status())
		}

		want := []Status{StatusReady, StatusPlaying, StatusPaused, StatusPlaying}
		got := drainStates(h.sub)
		if len(got) != len(want) {
			t.Fatalf("state changes = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("state change %d = %v, want %v", i, got[i], want[i])
			}
		}
	})
}

func TestEngine_ProgressTicks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine

		_ = e.Load("/music/a.mp3")
		e.Play()
		time.Sleep(time.Second)
		synctest.Wait()

		ticks := drainProgress(h.sub)
		if len(ticks) != 10 {
			t.Fatalf("ticks = %d, want 10", len(ticks))
		}
		for i, p := range ticks {
			if p.Fraction < 0 || p.Fraction > 1 {
				t.Errorf("tick %d fraction = %v, out of [0,1]", i, p.Fraction)
			}
			if i > 0 && p.Elapsed < ticks[i-1].Elapsed {
				t.Errorf("tick %d elapsed %v < previous %v", i, p.Elapsed, ticks[i-1].Elapsed)
			}
		}
		last := ticks[len(ticks)-1]
		if last.Elapsed != time.Second || last.Millis() != 1000 {
			t.Errorf("last tick elapsed = %v, want 1s", last.Elapsed)
		}
		if math.Abs(last.Fraction-0.1) > 1e-9 {
			t.Errorf("last tick fraction = %v, want 0.1", last.Fraction)
		}
	})
}

func TestEngine_NoTicksWhilePaused(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine

		_ = e.Load("/music/a.mp3")
		e.Play()
		time.Sleep(300 * time.Millisecond)
		synctest.Wait()
		e.Pause()
		drainProgress(h.sub)

		time.Sleep(time.Second)
		synctest.Wait()

		if ticks := drainProgress(h.sub); len(ticks) != 0 {
			t.Errorf("got %d ticks while paused, want 0", len(ticks))
		}
	})
}

func TestEngine_SetVolume(t *testing.T) {
	e := New(player.NewMockBackend(time.Second), &control.Inline{})
	if e.Volume() != DefaultVolume {
		t.Errorf("default Volume() = %v, want %v", e.Volume(), DefaultVolume)
	}
	for _, v := range []float64{0, 0.1, 0.5, 0.73, 1} {
		if err := e.SetVolume(v); err != nil {
			t.Errorf("SetVolume(%v) error = %v", v, err)
		}
		if got := e.Volume(); got != v {
			t.Errorf("Volume() = %v, want %v", got, v)
		}
	}
	for _, v := range []float64{-0.1, 1.01, math.NaN()} {
		if err := e.SetVolume(v); !errors.Is(err, ErrInvalidVolume) {
			t.Errorf("SetVolume(%v) error = %v, want ErrInvalidVolume", v, err)
		}
	}
}

func TestEngine_SetBalanceAndSpeed(t *testing.T) {
	b := player.NewMockBackend(time.Second)
	e := New(b, &control.Inline{})

	if err := e.SetBalance(-0.5); err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}
	if err := e.SetBalance(1.5); !errors.Is(err, ErrInvalidBalance) {
		t.Errorf("SetBalance(1.5) error = %v, want ErrInvalidBalance", err)
	}
	if err := e.SetSpeed(1.5); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := e.SetSpeed(1.2); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("SetSpeed(1.2) error = %v, want ErrInvalidSpeed", err)
	}

	// Stored values are applied to the next session.
	_ = e.Load("/a.mp3")
	s := b.Last()
	if s.Balance() != -0.5 || s.Speed() != 1.5 {
		t.Errorf("session balance/speed = %v/%v, want -0.5/1.5", s.Balance(), s.Speed())
	}
	if s.Volume() != DefaultVolume {
		t.Errorf("session volume = %v, want %v", s.Volume(), DefaultVolume)
	}
	_ = e.Close()
}

func TestEngine_SeekClamps(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine
		_ = e.Load("/a.mp3")

		if err := e.Seek(-5 * time.Second); err != nil {
			t.Fatalf("Seek() error = %v", err)
		}
		if p := e.Progress(); p.Fraction != 0 || p.Elapsed != 0 {
			t.Errorf("after Seek(-5s) progress = %+v, want 0", p)
		}

		_ = e.Seek(time.Hour)
		if p := e.Progress(); p.Fraction != 1 || p.Elapsed != 10*time.Second {
			t.Errorf("after Seek(1h) progress = %+v, want 1", p)
		}
		if seeks := h.backend.Last().Seeks(); seeks[len(seeks)-1] != 10*time.Second {
			t.Errorf("backend seek = %v, want 10s", seeks[len(seeks)-1])
		}
	})
}

func TestEngine_EndOfMediaRunsContinuationOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine

		tr := library.NewTrack(library.Fields{Title: "A", FilePath: "/a.mp3"})
		_ = e.LoadTrack(tr)
		calls := 0
		e.RegisterEndOfMedia(func() { calls++ })
		e.Play()

		sess := h.backend.Last()
		sess.SimulateFinished()
		synctest.Wait()

		if calls != 1 {
			t.Errorf("continuation calls = %d, want 1", calls)
		}
		if e.Status() != StatusIdle {
			t.Errorf("Status() = %v, want Idle", e.Status())
		}
		if e.Track() != nil {
			t.Error("Track() should be nil after end of media")
		}
		if !sess.Closed() {
			t.Error("session not closed after end of media")
		}

		e.Stop()
		if calls != 1 {
			t.Errorf("continuation ran again after Stop(): calls = %d", calls)
		}
	})
}

func TestEngine_StopClearsSlotBeforeInvoking(t *testing.T) {
	e := New(player.NewMockBackend(time.Second), &control.Inline{})
	defer e.Close()
	_ = e.Load("/a.mp3")

	calls := 0
	e.RegisterEndOfMedia(func() {
		calls++
		e.Stop() // re-entrant stop must not run this again
	})
	e.Stop()

	if calls != 1 {
		t.Errorf("continuation calls = %d, want 1", calls)
	}
}

func TestEngine_RegisterReplacesWithoutInvoking(t *testing.T) {
	e := New(player.NewMockBackend(time.Second), &control.Inline{})
	defer e.Close()
	_ = e.Load("/a.mp3")

	first, second := 0, 0
	e.RegisterEndOfMedia(func() { first++ })
	e.RegisterEndOfMedia(func() { second++ })
	e.Stop()

	if first != 0 || second != 1 {
		t.Errorf("calls first=%d second=%d, want 0 and 1", first, second)
	}
}

func TestEngine_LoadClearsContinuation(t *testing.T) {
	e := New(player.NewMockBackend(time.Second), &control.Inline{})
	defer e.Close()
	_ = e.Load("/a.mp3")
	calls := 0
	e.RegisterEndOfMedia(func() { calls++ })

	_ = e.Load("/b.mp3")
	e.Stop()

	if calls != 0 {
		t.Errorf("continuation from previous load ran %d times", calls)
	}
}

func TestEngine_LoadFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(time.Second)
		defer h.stop()
		e := h.engine
		openErr := errors.New("bad header")
		h.backend.SetOpenError(openErr)

		err := e.Load("/broken.mp3")

		var berr *BackendError
		if !errors.As(err, &berr) || berr.Op != OpLoad || !errors.Is(err, openErr) {
			t.Fatalf("Load() error = %v, want BackendError wrapping %v", err, openErr)
		}
		if e.Status() != StatusIdle {
			t.Errorf("Status() = %v, want Idle", e.Status())
		}
		select {
		case ev := <-h.sub.Error:
			if ev.Source != "/broken.mp3" || ev.Operation != OpLoad {
				t.Errorf("ErrorEvent = %+v", ev)
			}
		default:
			t.Error("no ErrorEvent emitted")
		}
	})
}

func TestEngine_BackendFaultResetsWithoutContinuation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine
		_ = e.Load("/a.mp3")
		calls := 0
		e.RegisterEndOfMedia(func() { calls++ })
		e.Play()

		h.backend.Last().SimulateError(errors.New("device lost"))
		synctest.Wait()

		if e.Status() != StatusIdle {
			t.Errorf("Status() = %v, want Idle", e.Status())
		}
		if calls != 0 {
			t.Errorf("continuation ran %d times after fault", calls)
		}
		select {
		case ev := <-h.sub.Error:
			if ev.Operation != OpPlayback {
				t.Errorf("ErrorEvent.Operation = %q, want %q", ev.Operation, OpPlayback)
			}
		default:
			t.Error("no ErrorEvent emitted")
		}
	})
}

func TestEngine_StaleFinishIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine
		_ = e.Load("/a.mp3")
		old := h.backend.Last()
		_ = e.Load("/b.mp3")
		e.Play()

		old.SimulateFinished()
		synctest.Wait()

		if e.Status() != StatusPlaying {
			t.Errorf("Status() = %v, want Playing (old session finish must be ignored)", e.Status())
		}
	})
}

func TestEngine_Fades(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10*time.Second, WithFadeDuration(2*time.Second))
		defer h.stop()
		e := h.engine
		e.SetFadeEnabled(true)
		_ = e.Load("/a.mp3")
		sess := h.backend.Last()

		e.Play()
		if got := sess.Volume(); got != 0 {
			t.Errorf("volume at start = %v, want 0", got)
		}

		time.Sleep(time.Second)
		synctest.Wait()
		if got := sess.Volume(); math.Abs(got-0.25) > 1e-9 {
			t.Errorf("volume at 1s = %v, want 0.25", got)
		}

		time.Sleep(2 * time.Second)
		synctest.Wait()
		if got := sess.Volume(); got != DefaultVolume {
			t.Errorf("volume at 3s = %v, want %v", got, DefaultVolume)
		}

		time.Sleep(6 * time.Second)
		synctest.Wait()
		if got := sess.Volume(); math.Abs(got-0.25) > 1e-9 {
			t.Errorf("volume at 9s = %v, want 0.25", got)
		}
	})
}

func TestEngine_SeekCancelsFades(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10*time.Second, WithFadeDuration(2*time.Second))
		defer h.stop()
		e := h.engine
		e.SetFadeEnabled(true)
		_ = e.Load("/a.mp3")
		sess := h.backend.Last()
		e.Play()
		time.Sleep(time.Second)
		synctest.Wait()

		_ = e.Seek(5 * time.Second)
		if got := sess.Volume(); got != DefaultVolume {
			t.Errorf("volume after seeking past fade-in = %v, want %v", got, DefaultVolume)
		}

		_ = e.Seek(time.Second)
		if got := sess.Volume(); got != 0 {
			t.Errorf("volume after seeking into fade window = %v, want 0 (new fade-in)", got)
		}

		time.Sleep(500 * time.Millisecond)
		synctest.Wait()
		if got := sess.Volume(); math.Abs(got-0.25) > 1e-9 {
			t.Errorf("volume halfway through new fade-in = %v, want 0.25", got)
		}
	})
}

func TestEngine_DisableFadeRestoresVolume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10*time.Second, WithFadeDuration(2*time.Second))
		defer h.stop()
		e := h.engine
		e.SetFadeEnabled(true)
		_ = e.Load("/a.mp3")
		e.Play()

		e.SetFadeEnabled(false)

		if got := h.backend.Last().Volume(); got != DefaultVolume {
			t.Errorf("volume = %v, want %v", got, DefaultVolume)
		}
	})
}

func TestEngine_TrackChangeEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(10 * time.Second)
		defer h.stop()
		e := h.engine
		tr := library.NewTrack(library.Fields{Title: "A", FilePath: "/a.mp3"})

		_ = e.LoadTrack(tr)
		e.Reset()

		first := <-h.sub.TrackChanged
		if first.Current != tr {
			t.Errorf("first TrackChange.Current = %v, want track", first.Current)
		}
		second := <-h.sub.TrackChanged
		if second.Current != nil || second.Previous != tr {
			t.Errorf("second TrackChange = %+v, want cleared", second)
		}
	})
}

func TestEngine_Close(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(time.Second)
		_ = h.engine.Load("/a.mp3")
		h.stop()
		<-h.sub.Done
		if err := h.engine.Load("/b.mp3"); !errors.Is(err, ErrClosed) {
			t.Errorf("Load() after Close error = %v, want ErrClosed", err)
		}
	})
}
