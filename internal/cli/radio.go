package cli

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llehouerou/singalong/internal/app"
	"github.com/llehouerou/singalong/internal/config"
	"github.com/llehouerou/singalong/internal/errmsg"
)

func newRadioCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "radio [station | url]",
		Short: "List the configured stations, or tune in to one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg, err := o.loadConfig()
				if err != nil {
					return fail(errmsg.OpInitialize, err)
				}
				printStations(cmd, cfg.Radio.Stations)
				return nil
			}

			return withSession(cmd, o, true, func(s *session) error {
				stream, err := stationURL(s.Config, args[0])
				if err != nil {
					return fail(errmsg.OpRadioStart, err)
				}
				return s.runTUI(func(t *app.Transport) error {
					return fail(errmsg.OpRadioStart, t.PlayStation(stream))
				})
			})
		},
	}
}

func printStations(cmd *cobra.Command, stations []config.Station) {
	out := cmd.OutOrStdout()
	if len(stations) == 0 {
		fmt.Fprintln(out, "No stations configured")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range stations {
		fmt.Fprintf(tw, "%s\t%s\n", s.Title, s.URL)
	}
	_ = tw.Flush()
}

// stationURL resolves a configured station title, or accepts an http(s)
// URL as is.
func stationURL(cfg *config.Config, arg string) (string, error) {
	if s, ok := cfg.Station(arg); ok {
		return s.URL, nil
	}
	if u, err := url.Parse(arg); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return arg, nil
	}
	return "", fmt.Errorf("unknown station %q", arg)
}
