package lyrics

import (
	"path/filepath"
	"regexp"
)

var unsafeTitleChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// SanitizeTitle replaces every character other than ASCII letters, digits,
// dots and dashes with an underscore.
func SanitizeTitle(title string) string {
	return unsafeTitleChars.ReplaceAllString(title, "_")
}

// Layout places lyrics files in a single directory, named after the
// sanitized track title.
type Layout struct {
	Dir string
}

// TimedPath returns the .lrc path for a title, or "" for an empty title.
func (l Layout) TimedPath(title string) string {
	return l.path(title, ".lrc")
}

// PlainPath returns the .txt path for a title, or "" for an empty title.
func (l Layout) PlainPath(title string) string {
	return l.path(title, ".txt")
}

func (l Layout) path(title, ext string) string {
	if title == "" {
		return ""
	}
	return filepath.Join(l.Dir, SanitizeTitle(title)+ext)
}
