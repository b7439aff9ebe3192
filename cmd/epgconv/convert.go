// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/log"
	"github.com/ManuGH/epgconv/internal/metrics"
)

type convertFlags struct {
	channel     string
	out         string
	offset      string
	days        []string
	dryRun      bool
	noFill      bool
	metricsFile string
	json        bool
}

func newConvertCmd(a *app) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert <workbook.xlsx>",
		Short: "Convert a workbook into one XMLTV document per day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.apply(a.cfg)
			if err != nil {
				return err
			}
			d, err := deps(cfg, f.channel)
			if err != nil {
				return err
			}
			opts := jobs.OptionsFromConfig(cfg)
			opts.DryRun = f.dryRun
			opts.Days = f.days

			sum, runErr := jobs.ConvertFile(cmd.Context(), args[0], d, opts)
			if cfg.MetricsFile != "" {
				if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
					logger := log.WithComponent("cli")
					logger.Warn().Err(err).Str(log.FieldPath, cfg.MetricsFile).Msg("metrics textfile not written")
				}
			}
			if runErr != nil {
				return runErr
			}
			if f.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			return printSummary(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVar(&f.channel, "channel", "", "channel key (defaults to the configured channel)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&f.offset, "offset", "", "UTC offset of the schedule, e.g. 2, +5.5 or -03:30")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "convert only these days (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "reconcile and render without writing files")
	cmd.Flags().BoolVar(&f.noFill, "no-fill", false, "do not fill gaps with synthesized programs")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the run summary as JSON")
	return cmd
}

// apply layers the command line over cfg and revalidates the result.
func (f convertFlags) apply(cfg config.Config) (config.Config, error) {
	if f.out != "" {
		cfg.OutputDir = f.out
	}
	if f.offset != "" {
		off, err := epg.ParseOffset(f.offset)
		if err != nil {
			return cfg, fmt.Errorf("--offset: %w", err)
		}
		cfg.OffsetHours = off
	}
	if f.noFill {
		cfg.FillGaps = false
	}
	if f.metricsFile != "" {
		cfg.MetricsFile = f.metricsFile
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func printSummary(w io.Writer, sum *jobs.Summary) error {
	mode := ""
	if sum.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "run %s: channel %s, %s workbook %s%s\n", sum.RunID, sum.Channel, sum.Source, sum.Workbook, mode)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tSHEET\tPROGRAMS\tFILLERS\tCOVERAGE\tANOMALIES\tPATH")
	for _, d := range sum.Days {
		anomalies := 0
		for _, n := range d.Anomalies {
			anomalies += n
		}
		path := d.Path
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d/1440\t%d\t%s\n",
			d.Day, d.Sheet, d.Programs, d.Fillers, d.CoverageMinutes, anomalies, path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "total: %d days, %d programs, %d fillers, %dms\n",
		len(sum.Days), sum.Programs, sum.Fillers, sum.DurationMS)
	for _, warning := range sum.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if len(sum.MissingFormats) > 0 {
		fmt.Fprintf(w, "formats without icon: %s\n", strings.Join(sum.MissingFormats, ", "))
	}
	return nil
}
