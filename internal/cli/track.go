package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
)

func newTrackCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Show or edit the details of a library track",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <file>",
			Short: "Print the details of a file, adding it to the library if needed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					tracks, err := s.addTracks(args)
					if err != nil {
						return err
					}
					printFields(cmd.OutOrStdout(), tracks[0].Fields())
					return nil
				})
			},
		},
		newTrackEditCommand(o),
	)
	return cmd
}

func newTrackEditCommand(o *options) *cobra.Command {
	var edit library.Fields
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Change the title, artist, album, year or genre of a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return withSession(cmd, o, false, func(s *session) error {
				tracks, err := s.addTracks(args)
				if err != nil {
					return err
				}
				t := tracks[0]

				var after library.Fields
				if err := s.Do(func() {
					f := t.Fields()
					if flags.Changed("title") {
						f.Title = edit.Title
					}
					if flags.Changed("artist") {
						f.Artist = edit.Artist
					}
					if flags.Changed("album") {
						f.Album = edit.Album
					}
					if flags.Changed("year") {
						f.Year = edit.Year
					}
					if flags.Changed("genre") {
						f.Genre = edit.Genre
					}
					t.Assign(f)
					after = t.Fields()
				}); err != nil {
					return err
				}

				saved, err := s.SyncTracks(s.Context())
				if err != nil {
					return fail(errmsg.OpTrackSave, err)
				}
				if saved == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", t)
				}
				printFields(cmd.OutOrStdout(), after)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&edit.Title, "title", "", "new title")
	f.StringVar(&edit.Artist, "artist", "", "new artist")
	f.StringVar(&edit.Album, "album", "", "new album")
	f.StringVar(&edit.Year, "year", "", "new year")
	f.StringVar(&edit.Genre, "genre", "", "new genre")
	cmd.MarkFlagsOneRequired("title", "artist", "album", "year", "genre")
	return cmd
}

func printFields(w io.Writer, f library.Fields) {
	rows := []struct{ name, value string }{
		{"Title", f.Title},
		{"Artist", f.Artist},
		{"Album", f.Album},
		{"Year", f.Year},
		{"Genre", f.Genre},
		{"Length", formatClock(f.Duration)},
		{"File", f.FilePath},
		{"Lyrics", f.LyricsPath},
		{"Synced", f.TimedLyricsPath},
	}
	for _, r := range rows {
		if r.value != "" {
			fmt.Fprintf(w, "%-7s %s\n", r.name+":", r.value)
		}
	}
}
