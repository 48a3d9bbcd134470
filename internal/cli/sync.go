package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/player"
)

type syncReport struct {
	checked int
	updated int
	missing []*library.Track
	saved   int
}

func newSyncCommand(o *options) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Re-read the tags of every library file and save the changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, o, false, func(s *session) error {
				rep, err := s.rescan()
				if err != nil {
					return err
				}
				if prune {
					if err := s.prune(rep.missing); err != nil {
						return err
					}
				}
				if rep.saved, err = s.SyncTracks(s.Context()); err != nil {
					return err
				}
				printReport(cmd, s, rep, prune)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "remove tracks whose file no longer exists")
	return cmd
}

// rescan re-reads every track's tags. Lyrics and cover paths are kept, as
// is a known duration when the file cannot be measured.
func (s *session) rescan() (syncReport, error) {
	var tracks []*library.Track
	if err := s.Do(func() { tracks = s.Library.Tracks() }); err != nil {
		return syncReport{}, err
	}

	rep := syncReport{checked: len(tracks)}
	for _, t := range tracks {
		cur := t.Fields()
		fresh, err := library.ReadFields(cur.FilePath, player.MeasureDuration)
		if errors.Is(err, fs.ErrNotExist) {
			rep.missing = append(rep.missing, t)
			continue
		}
		if err != nil {
			s.Log.Warn("rescan track", zap.String("path", cur.FilePath), zap.Error(err))
			continue
		}

		fresh.CoverPath = cur.CoverPath
		fresh.LyricsPath = cur.LyricsPath
		fresh.TimedLyricsPath = cur.TimedLyricsPath
		if fresh.Duration == 0 {
			fresh.Duration = cur.Duration
		}
		if fresh == cur {
			continue
		}
		if err := s.Do(func() { t.Assign(fresh) }); err != nil {
			return rep, err
		}
		rep.updated++
	}
	return rep, nil
}

func (s *session) prune(missing []*library.Track) error {
	for _, t := range missing {
		if err := s.Do(func() {
			s.Queue.Remove(t)
			for _, title := range s.Playlists.Titles() {
				if p, ok := s.Playlists.Get(title); ok {
					p.Remove(t)
				}
			}
			s.Library.Remove(t.ID())
			s.Changes.Forget(t.ID())
		}); err != nil {
			return err
		}
		if err := s.Store.DeleteTrack(s.Context(), t.ID()); err != nil {
			return fail(errmsg.OpTrackSync, err)
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, s *session, rep syncReport, pruned bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checked %s: %s updated, %s missing\n",
		plural(rep.checked, "track"), humanize.Comma(int64(rep.updated)), humanize.Comma(int64(len(rep.missing))))
	for _, t := range rep.missing {
		verb := "missing"
		if pruned {
			verb = "removed"
		}
		fmt.Fprintf(out, "  %s: %s\n", verb, t.FilePath())
	}
	fmt.Fprintf(out, "Saved %s\n", plural(rep.saved, "track"))
	if info, err := os.Stat(s.Config.Database); err == nil {
		fmt.Fprintf(out, "Database %s (%s)\n", s.Config.Database, humanize.Bytes(uint64(info.Size())))
	}
}
