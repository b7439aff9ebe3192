// SPDX-License-Identifier: MIT

// Command epgconv converts broadcast schedule workbooks into XMLTV.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/log"
	"github.com/ManuGH/epgconv/internal/telemetry"
	"github.com/ManuGH/epgconv/internal/version"
)

// skipConfig marks commands that run without loading the configuration.
const skipConfig = "skip-config"

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	console    bool

	loader   *config.Loader
	cfg      config.Config
	provider *telemetry.Provider
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "epgconv",
		Short:         "Convert broadcast schedule workbooks into XMLTV",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := cmd.Annotations[skipConfig]; ok {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.provider == nil {
				return nil
			}
			return a.provider.Shutdown(context.WithoutCancel(cmd.Context()))
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (YAML); defaults to $"+config.EnvConfig)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides the configuration)")
	root.PersistentFlags().BoolVar(&a.console, "console", false, "human readable logs")

	root.AddCommand(
		newConvertCmd(a),
		newDetectCmd(a),
		newFormatsCmd(a),
		newVerifyCmd(),
		newShiftCmd(),
		newServeCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, then configures logging and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	path := strings.TrimSpace(a.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.EnvConfig))
	}
	a.loader = config.NewLoader(path, version.Version)
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Output:  cmd.ErrOrStderr(),
		Service: "epgconv",
		Version: version.Version,
		Console: a.console,
	})

	provider, err := telemetry.NewProvider(cmd.Context(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "epgconv",
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	a.provider = provider

	logger := log.WithComponent("cli")
	src := "env+defaults"
	if path != "" {
		src = "file"
	}
	logger.Debug().
		Str(log.FieldEvent, "config.loaded").
		Str("source", src).
		Str(log.FieldPath, path).
		Msg("configuration loaded")
	return nil
}

// deps assembles run dependencies for channel from cfg, logging anomalies.
func deps(cfg config.Config, channel string) (jobs.Deps, error) {
	return jobs.DepsFromConfig(cfg, channel, diag.NewLogSink(log.WithComponent("diag")))
}
