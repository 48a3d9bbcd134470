// Package cli is the singalong command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string
	verbose    bool
	headless   bool
}

// NewRootCommand builds the command tree. Without a subcommand it opens
// the player on the saved queue.
func NewRootCommand() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "singalong",
		Short:         "A terminal music player that follows along with the lyrics.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, o, true, func(s *session) error {
				return s.runTUI(nil)
			})
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "read the configuration from this TOML file only")
	f.StringVar(&o.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "mirror the log to stderr (non-interactive commands)")
	f.BoolVar(&o.headless, "headless", false, "skip desktop notifications and MPRIS")

	root.AddCommand(
		newPlayCommand(o),
		newQueueCommand(o),
		newRadioCommand(o),
		newLyricsCommand(o),
		newSyncCommand(o),
		newPlaylistCommand(o),
		newSearchCommand(o),
		newTrackCommand(o),
	)
	return root
}

// Execute runs the command tree and exits with status 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
