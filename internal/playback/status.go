package playback

// Status is the engine state.
//
//	┌──────┐  load   ┌───────┐  play   ┌─────────┐
//	│ Idle │ ──────▶ │ Ready │ ──────▶ │ Playing │ ◀─┐
//	└──────┘         └───────┘         └─────────┘   │ resume
//	    ▲                                 │ pause    │
//	    │          stop / end / error     ▼          │
//	    └──────────────────────────── ┌────────┐ ────┘
//	                                  │ Paused │
//	                                  └────────┘
//
// Operations called in a state that does not allow them do nothing. Load is
// the exception: it is always allowed and resets to Idle first.
type Status int

const (
	StatusIdle Status = iota
	StatusReady
	StatusPlaying
	StatusPaused
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusReady:
		return "Ready"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Loaded reports whether a source is open.
func (s Status) Loaded() bool {
	return s != StatusIdle
}

// IsActive reports whether playback has started (playing or paused).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}
