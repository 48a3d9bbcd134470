package cli

import (
	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/app"
)

func newPlayCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play <file>...",
		Short: "Replace the queue with the given files and play them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, o, true, func(s *session) error {
				tracks, err := s.addTracks(args)
				if err != nil {
					return err
				}
				return s.runTUI(func(t *app.Transport) error {
					t.PlayNow(tracks[0])
					for _, tr := range tracks[1:] {
						t.Enqueue(tr)
					}
					return nil
				})
			})
		},
	}
}
