// Package keymap defines the player's key bindings and resolves key
// presses to actions.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"
	ActionHelp Action = "help"

	// Transport actions
	ActionPlayPause Action = "play_pause"
	ActionStop      Action = "stop"
	ActionNextTrack Action = "next_track"
	ActionPrevTrack Action = "prev_track"

	// Playlist actions
	ActionToggleShuffle Action = "toggle_shuffle"

	// Position actions
	ActionSeekForward     Action = "seek_forward"
	ActionSeekBack        Action = "seek_back"
	ActionSeekForwardLong Action = "seek_forward_long"
	ActionSeekBackLong    Action = "seek_back_long"
	ActionRestart         Action = "restart"

	// Output actions
	ActionVolumeUp     Action = "volume_up"
	ActionVolumeDown   Action = "volume_down"
	ActionBalanceLeft  Action = "balance_left"
	ActionBalanceRight Action = "balance_right"
	ActionSpeedUp      Action = "speed_up"
	ActionSpeedDown    Action = "speed_down"
	ActionToggleFade   Action = "toggle_fade"
)
