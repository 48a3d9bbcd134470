//go:build linux

package notify

import (
	"os"

	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/mpris"
)

// FindAlbumArtPath returns the track's own cover when it exists, otherwise
// a cover image next to the audio file, or "".
func FindAlbumArtPath(t *library.Track) string {
	if t == nil {
		return ""
	}
	if p := t.CoverPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return mpris.FindAlbumArt(t.FilePath())
}
