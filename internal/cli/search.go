package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/errmsg"
	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/state"
)

func newSearchCommand(o *options) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find library tracks by title prefix, artist, album or genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := state.ParseSearchField(by)
			if err != nil {
				return err
			}
			return withSession(cmd, o, false, func(s *session) error {
				ids, err := s.Store.SearchTracks(s.Context(), field, args[0])
				if err != nil {
					return fail(errmsg.OpLibrarySearch, err)
				}

				var tracks []*library.Track
				if err := s.Do(func() {
					for _, id := range ids {
						if t, ok := s.Library.Get(id); ok {
							tracks = append(tracks, t)
						}
					}
				}); err != nil {
					return err
				}

				if len(tracks) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No tracks with %s %q\n", field, args[0])
					return nil
				}
				printTracks(cmd.OutOrStdout(), tracks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&by, "by", "b", "title", "field to match: title, artist, album or genre")
	return cmd
}
