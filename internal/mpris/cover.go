//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"strings"
)

// coverBases and coverExts give album art filenames in priority order:
// every extension of a base name is tried before the next base name.
var (
	coverBases = []string{"cover", "folder", "album", "front"}
	coverExts  = []string{".jpg", ".png", ".jpeg"}
)

// FindAlbumArt looks for album art in the same directory as the track.
// Names are matched case-insensitively. Returns the path to the art file,
// or empty string if not found.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if _, seen := byName[lower]; !seen {
			byName[lower] = e.Name()
		}
	}

	for _, base := range coverBases {
		for _, ext := range coverExts {
			if name, ok := byName[base+ext]; ok {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}
