// SPDX-License-Identifier: MIT

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ManuGH/epgconv/internal/api"
	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/log"
	"github.com/ManuGH/epgconv/internal/metrics"
	"github.com/ManuGH/epgconv/internal/validate"
	"github.com/ManuGH/epgconv/internal/version"
	"github.com/ManuGH/epgconv/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detect, convert and verify HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.cfg.ListenAddr
			if listen != "" {
				v := validate.New()
				v.ListenAddr("listen", listen)
				if err := v.Err(); err != nil {
					return err
				}
				addr = listen
			}
			holder := config.NewHolder(a.cfg, a.loader)
			if err := holder.StartWatcher(cmd.Context()); err != nil {
				return err
			}
			srv := api.New(holder, api.WithVersion(version.Version))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides the configuration)")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		inbox    string
		channel  string
		existing bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Convert every workbook dropped into the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			holder := config.NewHolder(a.cfg, a.loader)
			if err := holder.StartWatcher(cmd.Context()); err != nil {
				return err
			}
			dir := a.cfg.InboxDir
			if inbox != "" {
				dir = inbox
			}
			w := watch.New(dir, inboxConverter(holder, channel))
			w.ScanExisting = existing
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&inbox, "inbox", "", "inbox directory (overrides the configuration)")
	cmd.Flags().StringVar(&channel, "channel", "", "channel key (defaults to the configured channel)")
	cmd.Flags().BoolVar(&existing, "existing", false, "also convert workbooks already in the inbox")
	return cmd
}

// inboxConverter converts one workbook with the configuration current at the
// time the file settles.
func inboxConverter(holder *config.Holder, channel string) watch.ConvertFunc {
	return func(ctx context.Context, path string) error {
		cfg := holder.Get()
		d, err := deps(cfg, channel)
		if err != nil {
			return err
		}
		_, err = jobs.ConvertFile(ctx, path, d, jobs.OptionsFromConfig(cfg))
		if cfg.MetricsFile != "" {
			if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger := log.WithComponent("watch")
				logger.Warn().Err(werr).Str(log.FieldPath, cfg.MetricsFile).Msg("metrics textfile not written")
			}
		}
		return err
	}
}
