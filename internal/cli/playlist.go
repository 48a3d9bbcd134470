package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/app"
	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/playlist"
)

func newPlaylistCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playlist",
		Aliases: []string{"pl"},
		Short:   "List playlists",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, o, false, func(s *session) error {
				return s.listPlaylists(cmd)
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <name>",
			Short: "List the tracks of a playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					var tracks []*library.Track
					err := s.call(func() error {
						p, ok := s.Playlists.Get(args[0])
						if !ok {
							return playlist.ErrNotFound
						}
						tracks = p.Tracks()
						return nil
					})
					if err != nil {
						return fail(errmsg.OpLibraryLoad, err)
					}
					if len(tracks) == 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "%s is empty\n", args[0])
						return nil
					}
					printTracks(cmd.OutOrStdout(), tracks)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an empty playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					err := s.call(func() error {
						_, err := s.Playlists.Create(args[0])
						return err
					})
					if err != nil {
						return fail(errmsg.OpPlaylistCreate, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rename <name> <new-name>",
			Short: "Rename a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					if err := s.call(func() error { return s.Playlists.Rename(args[0], args[1]) }); err != nil {
						return fail(errmsg.OpPlaylistRename, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					if err := s.call(func() error { return s.Playlists.Delete(args[0]) }); err != nil {
						return fail(errmsg.OpPlaylistDelete, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <name> <file>...",
			Short: "Append files to a playlist",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					tracks, err := s.addTracks(args[1:])
					if err != nil {
						return err
					}
					added := 0
					err = s.call(func() error {
						p, ok := s.Playlists.Get(args[0])
						if !ok {
							return playlist.ErrNotFound
						}
						for _, t := range tracks {
							if p.Add(t) {
								added++
							}
						}
						return nil
					})
					if err != nil {
						return fail(errmsg.OpPlaylistAddTrack, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", plural(added, "track"), args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <name> <position>",
			Short: "Remove the track at a 1-based position of a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := parsePosition(args[1])
				if err != nil {
					return err
				}
				return withSession(cmd, o, false, func(s *session) error {
					var removed *library.Track
					err := s.call(func() error {
						p, err := s.playlistTrack(args[0], pos)
						if err != nil {
							return err
						}
						removed = p.Track(pos - 1)
						p.Remove(removed)
						return nil
					})
					if err != nil {
						return fail(errmsg.OpPlaylistRemove, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", removed, args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "move <name> <from> <to>",
			Short: "Move a track of a playlist to another 1-based position",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := parsePosition(args[1])
				if err != nil {
					return err
				}
				to, err := parsePosition(args[2])
				if err != nil {
					return err
				}
				return withSession(cmd, o, false, func(s *session) error {
					var moved *library.Track
					err := s.call(func() error {
						p, err := s.playlistTrack(args[0], from)
						if err != nil {
							return err
						}
						if _, err := s.playlistTrack(args[0], to); err != nil {
							return err
						}
						moved = p.Track(from - 1)
						s.Transport.Reorder(p, from-1, to-1)
						return nil
					})
					if err != nil {
						return fail(errmsg.OpPlaylistMove, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to position %d of %s\n", moved, to, args[0])
					return nil
				})
			},
		},
		newPlaylistPlayCommand(o),
	)
	return cmd
}

func parsePosition(arg string) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	return pos, nil
}

// playlistTrack returns the playlist named title after checking it has a
// track at the 1-based pos.
func (s *session) playlistTrack(title string, pos int) (*playlist.Playlist, error) {
	p, ok := s.Playlists.Get(title)
	if !ok {
		return nil, playlist.ErrNotFound
	}
	if pos > p.Len() {
		return nil, fmt.Errorf("%s has no position %d", title, pos)
	}
	return p, nil
}

func newPlaylistPlayCommand(o *options) *cobra.Command {
	var (
		shuffle bool
		from    int
	)
	cmd := &cobra.Command{
		Use:   "play <name>",
		Short: "Play a playlist from the top, or shuffled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, o, true, func(s *session) error {
				return s.runTUI(func(t *app.Transport) error {
					p, ok := s.Playlists.Get(args[0])
					if !ok {
						return fail(errmsg.OpPlaybackStart, playlist.ErrNotFound)
					}
					if p.Len() == 0 {
						return fmt.Errorf("playlist %s is empty", args[0])
					}
					p.SetShuffle(shuffle)
					t.PlayPlaylist(p, max(from-1, 0))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&shuffle, "shuffle", "s", false, "walk the playlist in random order")
	cmd.Flags().IntVar(&from, "from", 1, "1-based position to start from")
	return cmd
}

func (s *session) listPlaylists(cmd *cobra.Command) error {
	type row struct {
		title  string
		tracks []*library.Track
	}
	var rows []row
	if err := s.Do(func() {
		for _, title := range s.Playlists.Titles() {
			if p, ok := s.Playlists.Get(title); ok {
				rows = append(rows, row{title: title, tracks: p.Tracks()})
			}
		}
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No playlists")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		total := 0
		for _, t := range r.tracks {
			total += t.Duration()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.title, plural(len(r.tracks), "track"), formatClock(total))
	}
	return tw.Flush()
}
