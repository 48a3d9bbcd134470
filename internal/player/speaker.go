package player

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Speaker plays sessions on the default sound device through beep.
// The device is initialised with the sample rate of the first source opened;
// later sources are resampled to it.
type Speaker struct {
	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate
	client      *http.Client
}

// NewSpeaker creates a speaker backend. client is used for URL sources;
// nil means http.DefaultClient.
func NewSpeaker(client *http.Client) *Speaker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Speaker{client: client}
}

// Open implements Backend.
func (s *Speaker) Open(source string) (Session, error) {
	rc, kind, seekable, err := s.openSource(source)
	if err != nil {
		return nil, err
	}
	streamer, format, err := decode(kind, rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	if err := s.ensureInit(format.SampleRate); err != nil {
		streamer.Close()
		return nil, err
	}

	sess := &speakerSession{
		streamer: streamer,
		format:   format,
		seekable: seekable,
		finished: make(chan struct{}),
		errs:     make(chan error, 1),
	}
	sess.resampler = beep.Resample(4, format.SampleRate, s.rate, streamer)
	sess.baseRatio = sess.resampler.Ratio()
	sess.ctrl = &beep.Ctrl{Streamer: sess.resampler, Paused: true}
	sess.pan = &effects.Pan{Streamer: sess.ctrl, Pan: 0}
	sess.volume = &effects.Volume{Streamer: sess.pan, Base: 2, Volume: 0}

	speaker.Play(beep.Seq(sess.volume, beep.Callback(sess.onDrained)))
	return sess, nil
}

func (s *Speaker) openSource(source string) (io.ReadCloser, string, bool, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := s.client.Get(source) //nolint:noctx // stream lives as long as the session
		if err != nil {
			return nil, "", false, err
		}
		if resp.StatusCode/100 != 2 {
			resp.Body.Close()
			return nil, "", false, fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
		}
		kind := kindFromContentType(resp.Header.Get("Content-Type"))
		if kind == "" {
			kind = kindFromPath(strings.SplitN(source, "?", 2)[0])
		}
		if kind == "" {
			kind = extMP3
		}
		return resp.Body, kind, false, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, "", false, err
	}
	return f, kindFromPath(source), true, nil
}

func (s *Speaker) ensureInit(rate beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	s.rate = rate
	s.initialized = true
	return nil
}

type speakerSession struct {
	streamer  beep.StreamSeekCloser
	format    beep.Format
	seekable  bool
	resampler *beep.Resampler
	baseRatio float64
	ctrl      *beep.Ctrl
	pan       *effects.Pan
	volume    *effects.Volume

	finished  chan struct{}
	errs      chan error
	closed    atomic.Bool
	closeOnce sync.Once
}

// onDrained runs on the speaker goroutine with the mixer locked.
func (s *speakerSession) onDrained() {
	if s.closed.Load() {
		return
	}
	if err := s.streamer.Err(); err != nil {
		select {
		case s.errs <- err:
		default:
		}
		return
	}
	close(s.finished)
}

func (s *speakerSession) Play() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *speakerSession) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *speakerSession) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return s.format.SampleRate.D(s.streamer.Position())
}

func (s *speakerSession) Duration() time.Duration {
	if !s.seekable {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

func (s *speakerSession) Seek(pos time.Duration) error {
	if !s.seekable {
		return ErrNotSeekable
	}
	speaker.Lock()
	defer speaker.Unlock()
	n := min(max(s.format.SampleRate.N(pos), 0), s.streamer.Len())
	return s.streamer.Seek(n)
}

func (s *speakerSession) SetVolume(gain float64) {
	speaker.Lock()
	s.volume.Volume = gainToVolume(gain)
	s.volume.Silent = gain <= 0
	speaker.Unlock()
}

func (s *speakerSession) SetBalance(balance float64) {
	speaker.Lock()
	s.pan.Pan = balance
	speaker.Unlock()
}

func (s *speakerSession) SetSpeed(speed float64) {
	speaker.Lock()
	s.resampler.SetRatio(s.baseRatio * speed)
	speaker.Unlock()
}

func (s *speakerSession) Finished() <-chan struct{} { return s.finished }

func (s *speakerSession) Errors() <-chan error { return s.errs }

func (s *speakerSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		speaker.Clear()
		err = s.streamer.Close()
	})
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// gainToVolume converts a linear gain to beep's base-2 volume: 1 -> 0,
// 0.5 -> -1, 0.25 -> -2, 0 -> -10.
func gainToVolume(gain float64) float64 {
	if gain <= 0 {
		return -10
	}
	if gain >= 1 {
		return 0
	}
	return math.Log2(gain)
}
