package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
)

func newQueueCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the play queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, o, false, func(s *session) error {
				var tracks []*library.Track
				if err := s.Do(func() { tracks = s.Queue.Tracks() }); err != nil {
					return err
				}
				if len(tracks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				printTracks(cmd.OutOrStdout(), tracks)
				return nil
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <file>...",
			Short: "Append files to the queue without starting playback",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					tracks, err := s.addTracks(args)
					if err != nil {
						return err
					}
					added := 0
					if err := s.Do(func() {
						for _, t := range tracks {
							if s.Queue.Add(t) {
								added++
							}
						}
					}); err != nil {
						return fail(errmsg.OpQueueAdd, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Queued %s\n", plural(added, "track"))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <position>",
			Short: "Remove the track at a 1-based queue position",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := strconv.Atoi(args[0])
				if err != nil || pos < 1 {
					return fmt.Errorf("invalid queue position %q", args[0])
				}
				return withSession(cmd, o, false, func(s *session) error {
					var removed *library.Track
					if err := s.Do(func() {
						if t := s.Queue.Track(pos - 1); t != nil && s.Queue.Remove(t) {
							removed = t
						}
					}); err != nil {
						return err
					}
					if removed == nil {
						return fmt.Errorf("queue has no position %d", pos)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", removed)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the queue",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSession(cmd, o, false, func(s *session) error {
					var n int
					if err := s.Do(func() {
						n = s.Queue.Len()
						s.Queue.Clear()
					}); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(n, "track"))
					return nil
				})
			},
		},
	)
	return cmd
}
