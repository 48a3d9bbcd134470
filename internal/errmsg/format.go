// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/player"
	"github.com/llehouerou/singalong/internal/playlist"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryLoad   Op = "load library"
	OpLibrarySearch Op = "search library"
	OpTrackAdd      Op = "add track"
	OpTrackSave     Op = "save track"
	OpTrackSync     Op = "save track changes"

	// Playlist operations
	OpPlaylistCreate   Op = "create playlist"
	OpPlaylistRename   Op = "rename playlist"
	OpPlaylistDelete   Op = "delete playlist"
	OpPlaylistAddTrack Op = "add track to playlist"
	OpPlaylistRemove   Op = "remove track from playlist"
	OpPlaylistMove     Op = "move playlist item"

	// Queue operations
	OpQueueLoad Op = "load queue"
	OpQueueSave Op = "save queue"
	OpQueueAdd  Op = "add to queue"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackAdjust Op = "adjust playback"
	OpRadioStart     Op = "start radio"

	// Lyrics operations
	OpLyricsLoad  Op = "load lyrics"
	OpLyricsFetch Op = "fetch lyrics"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Hint suggests what the user can do about err, or returns "" when there
// is nothing useful to say.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, lyrics.ErrDownload):
		return "Check your network connection and try again."
	case errors.Is(err, lyrics.ErrParse):
		return "The lyrics service sent an unexpected response; try again later."
	case errors.Is(err, player.ErrUnsupportedFormat):
		return "Supported formats are MP3, FLAC and WAV."
	case errors.Is(err, player.ErrNotSeekable):
		return "Live streams cannot be seeked."
	case errors.Is(err, playlist.ErrExists):
		return "Choose another playlist name."
	case errors.Is(err, playlist.ErrNotFound):
		return "List playlists to see the available names."
	}
	return ""
}

// FormatHint is Format followed by the Hint for err, if any.
func FormatHint(op Op, err error) string {
	msg := Format(op, err)
	if hint := Hint(err); hint != "" {
		msg += ". " + hint
	}
	return msg
}
