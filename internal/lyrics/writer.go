package lyrics

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/llehouerou/singalong/internal/library"
)

// Header is the metadata written at the top of a timed lyrics file.
type Header struct {
	Artist string
	Album  string
	Title  string
	Length time.Duration
}

// HeaderFor builds the header of t.
func HeaderFor(t *library.Track) Header {
	f := t.Fields()
	return Header{
		Artist: f.Artist,
		Album:  f.Album,
		Title:  f.Title,
		Length: time.Duration(f.Duration) * time.Second,
	}
}

// WriteLRC writes the four header lines followed by the synced lyrics.
// Blank header fields are written as "Unknown Artist", "Unknown Album" and
// "Unknown Title".
func WriteLRC(w io.Writer, h Header, synced string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "[ar: %s]\n", orDefault(h.Artist, "Unknown Artist"))
	fmt.Fprintf(bw, "[al: %s]\n", orDefault(h.Album, "Unknown Album"))
	fmt.Fprintf(bw, "[ti: %s]\n", orDefault(h.Title, "Unknown Title"))
	fmt.Fprintf(bw, "[length: %s]\n", FormatLength(h.Length))
	bw.WriteString(synced)
	if !strings.HasSuffix(synced, "\n") {
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// FormatLength formats d as MM:SS, minutes growing past two digits when
// needed.
func FormatLength(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
