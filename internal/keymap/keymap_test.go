//nolint:goconst // test cases intentionally repeat strings for readability
package keymap

import (
	"testing"
)

func TestByContext(t *testing.T) {
	tests := []struct {
		name            string
		context         string
		expectNonEmpty  bool
		expectMinLength int
	}{
		{"global context", "global", true, 2},
		{"playback context", "playback", true, 4},
		{"playlist context", "playlist", true, 1},
		{"position context", "position", true, 5},
		{"output context", "output", true, 7},
		{"unknown context returns empty", "unknown", false, 0},
		{"empty context returns empty", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ByContext(tt.context)

			if tt.expectNonEmpty && len(result) == 0 {
				t.Errorf("ByContext(%q) returned empty, expected non-empty", tt.context)
			}

			if !tt.expectNonEmpty && len(result) != 0 {
				t.Errorf("ByContext(%q) returned %d items, expected empty", tt.context, len(result))
			}

			if len(result) < tt.expectMinLength {
				t.Errorf("ByContext(%q) returned %d items, expected at least %d", tt.context, len(result), tt.expectMinLength)
			}

			for _, binding := range result {
				if binding.Context != tt.context {
					t.Errorf("binding context = %q, want %q", binding.Context, tt.context)
				}
			}
		})
	}
}

func TestBindings_NoKeyBoundTwice(t *testing.T) {
	seen := make(map[string]Action)
	for _, b := range Bindings {
		if len(b.Keys) == 0 {
			t.Errorf("binding %q has no keys", b.Action)
		}
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound to both %q and %q", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
}

func TestHelp(t *testing.T) {
	help := Help(ByContext("playback"))
	if len(help) != len(ByContext("playback")) {
		t.Fatalf("Help returned %d bindings, want %d", len(help), len(ByContext("playback")))
	}

	playPause := help[0]
	if got := playPause.Help().Key; got != "space" {
		t.Errorf("play/pause help key = %q, want %q", got, "space")
	}
	if got := playPause.Help().Desc; got != "Play/pause" {
		t.Errorf("play/pause help desc = %q, want %q", got, "Play/pause")
	}
	if keys := playPause.Keys(); len(keys) != 1 || keys[0] != " " {
		t.Errorf("play/pause keys = %v, want [\" \"]", keys)
	}
}
