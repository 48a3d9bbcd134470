package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lyrics"
)

type lyricsOptions struct {
	artist  string
	title   string
	offline bool
}

func newLyricsCommand(o *options) *cobra.Command {
	lo := &lyricsOptions{}
	cmd := &cobra.Command{
		Use:   "lyrics <file>",
		Short: "Find and print the lyrics of a file, downloading them if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, o, false, func(s *session) error {
				tracks, err := s.addTracks(args)
				if err != nil {
					return err
				}
				t := tracks[0]
				if err := s.Do(func() { lo.retag(t) }); err != nil {
					return err
				}

				res, err := s.resolveLyrics(t, lo.offline)
				if err != nil {
					return fail(errmsg.OpLyricsFetch, err)
				}
				printLyrics(cmd.OutOrStdout(), t, res)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&lo.artist, "artist", "", "use this artist instead of the file's tag")
	f.StringVar(&lo.title, "title", "", "use this title instead of the file's tag")
	f.BoolVar(&lo.offline, "offline", false, "only look at lyrics files already on disk")
	return cmd
}

// retag applies the --artist and --title overrides. The edit is saved with
// the track.
func (lo *lyricsOptions) retag(t *library.Track) {
	f := t.Fields()
	if lo.artist != "" {
		f.Artist = lo.artist
	}
	if lo.title != "" {
		f.Title = lo.title
	}
	t.Assign(f)
}

func (s *session) resolveLyrics(t *library.Track, offline bool) (lyrics.Result, error) {
	before := t.TimedLyricsPath()
	var (
		res lyrics.Result
		err error
	)
	if offline {
		res, _ = s.Resolver.ResolveLocal(t)
		if res.Doc == nil {
			res.Doc = &lyrics.Document{}
		}
	} else {
		res, err = s.Resolver.Resolve(s.Context(), t)
	}
	if t.TimedLyricsPath() != before {
		if derr := s.Do(func() { s.Changes.Invalidate(t.ID()) }); derr != nil && err == nil {
			err = derr
		}
	}
	return res, err
}

func printLyrics(w io.Writer, t *library.Track, res lyrics.Result) {
	if res.Doc.IsEmpty() {
		fmt.Fprintf(w, "No lyrics found for %s\n", t)
		return
	}

	kind := "plain"
	if res.Doc.IsSynced() {
		kind = "synced"
	}
	fmt.Fprintln(w, t)
	fmt.Fprintf(w, "%s, %s from %s\n", kind, plural(len(res.Doc.Lines), "line"), res.Source)
	if res.Path != "" {
		if info, err := os.Stat(res.Path); err == nil {
			fmt.Fprintf(w, "%s (%s, modified %s)\n", res.Path,
				humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
		}
	}
	fmt.Fprintln(w)

	for _, line := range res.Doc.Lines {
		if kind == "synced" {
			fmt.Fprintf(w, "%s %s\n", formatStamp(line.Time), line.Text)
		} else {
			fmt.Fprintln(w, line.Text)
		}
	}
}
