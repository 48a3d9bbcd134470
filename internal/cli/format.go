package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/singalong/internal/library"
)

// formatClock renders seconds as m:ss, or h:mm:ss past the hour.
func formatClock(seconds int) string {
	if seconds <= 0 {
		return "--:--"
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatStamp renders a lyric timestamp as [mm:ss.xx].
func formatStamp(d time.Duration) string {
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("[%02d:%02d.%02d]", cs/6000, cs/100%60, cs%100)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}

// printTracks writes a numbered track listing followed by a total line.
func printTracks(w io.Writer, tracks []*library.Track) {
	total := 0
	for i, t := range tracks {
		total += t.Duration()
		fmt.Fprintf(w, "%3d. %-50s %8s\n", i+1, t.String(), formatClock(t.Duration()))
	}
	fmt.Fprintf(w, "%s, %s\n", plural(len(tracks), "track"), formatClock(total))
}
