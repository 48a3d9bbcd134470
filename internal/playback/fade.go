package playback

import "time"

// ramp is a linear change of the gain factor between two media positions.
// Fades follow the playback position, so they freeze while paused and
// stretch with the speed setting.
type ramp struct {
	start, end time.Duration
	from, to   float64
}

func (r ramp) at(pos time.Duration) float64 {
	switch {
	case pos >= r.end:
		return r.to
	case pos <= r.start:
		return r.from
	}
	f := float64(pos-r.start) / float64(r.end-r.start)
	return r.from + (r.to-r.from)*f
}

// fades holds the fade-in in progress and the scheduled fade-out.
type fades struct {
	in  *ramp
	out *ramp
}

// begin sets up the fades for playback starting at pos.
func (f *fades) begin(pos, duration, length time.Duration) {
	f.in = &ramp{start: pos, end: pos + length, from: 0, to: 1}
	f.out = nil
	if duration > length {
		f.out = &ramp{start: duration - length, end: duration, from: 1, to: 0}
	}
}

// seek cancels fades in flight at the new position. A fade-out that starts
// later stays scheduled. Landing inside the fade-in window starts a new
// fade-in covering the rest of it.
func (f *fades) seek(pos, length time.Duration) {
	f.in = nil
	if f.out != nil && pos >= f.out.start {
		f.out = nil
	}
	if pos < length {
		f.in = &ramp{start: pos, end: length, from: 0, to: 1}
	}
}

func (f *fades) cancel() {
	f.in = nil
	f.out = nil
}

// factor returns the gain multiplier at pos and drops the fade-in once done.
func (f *fades) factor(pos time.Duration) float64 {
	g := 1.0
	if f.in != nil {
		if pos >= f.in.end {
			f.in = nil
		} else {
			g = min(g, f.in.at(pos))
		}
	}
	if f.out != nil && pos >= f.out.start {
		g = min(g, f.out.at(pos))
	}
	return g
}
