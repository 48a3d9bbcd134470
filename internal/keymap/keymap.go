package keymap

import "github.com/charmbracelet/bubbles/key"

// Binding contexts. A context groups bindings that are live together:
// position bindings only make sense for sources with a length, playlist
// bindings only while a playlist is being walked.
const (
	ContextGlobal   = "global"
	ContextPlayback = "playback"
	ContextPlaylist = "playlist"
	ContextPosition = "position"
	ContextOutput   = "output"
)

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string
}

// Bindings contains every key binding of the now-playing screen.
var Bindings = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", ContextGlobal},
	{ActionHelp, []string{"?"}, "Toggle help", ContextGlobal},

	// Playback
	{ActionPlayPause, []string{" "}, "Play/pause", ContextPlayback},
	{ActionStop, []string{"s"}, "Stop", ContextPlayback},
	{ActionNextTrack, []string{"n", "pgdown"}, "Next track", ContextPlayback},
	{ActionPrevTrack, []string{"p", "pgup"}, "Previous track", ContextPlayback},

	// Playlist
	{ActionToggleShuffle, []string{"r"}, "Toggle shuffle", ContextPlaylist},

	// Position
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", ContextPosition},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", ContextPosition},
	{ActionSeekBackLong, []string{"shift+left", "H"}, "Seek -30s", ContextPosition},
	{ActionSeekForwardLong, []string{"shift+right", "L"}, "Seek +30s", ContextPosition},
	{ActionRestart, []string{"home", "0"}, "Restart track", ContextPosition},

	// Output
	{ActionVolumeUp, []string{"+", "="}, "Volume up", ContextOutput},
	{ActionVolumeDown, []string{"-"}, "Volume down", ContextOutput},
	{ActionBalanceLeft, []string{"<"}, "Balance left", ContextOutput},
	{ActionBalanceRight, []string{">"}, "Balance right", ContextOutput},
	{ActionSpeedUp, []string{"]"}, "Faster", ContextOutput},
	{ActionSpeedDown, []string{"["}, "Slower", ContextOutput},
	{ActionToggleFade, []string{"f"}, "Toggle fade", ContextOutput},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range Bindings {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}

// Help converts bindings into bubbles key bindings for the help view.
func Help(bindings []Binding) []key.Binding {
	result := make([]key.Binding, 0, len(bindings))
	for _, b := range bindings {
		result = append(result, key.NewBinding(
			key.WithKeys(b.Keys...),
			key.WithHelp(helpKey(b.Keys[0]), b.Description),
		))
	}
	return result
}

func helpKey(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
