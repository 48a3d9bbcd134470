//go:build !linux

package notify

import "github.com/llehouerou/singalong/internal/library"

// FindAlbumArtPath returns empty on non-Linux platforms.
// Desktop notifications are only supported on Linux via D-Bus.
func FindAlbumArtPath(_ *library.Track) string {
	return ""
}
