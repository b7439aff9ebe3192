// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/source"
)

// inspection is what a workbook holds for one channel, without reconciling.
type inspection struct {
	deps    jobs.Deps
	book    *sheet.Workbook
	dates   []source.DetectedDate
	formats []string
}

func inspect(cfg config.Config, channel, path string) (*inspection, error) {
	d, err := deps(cfg, channel)
	if err != nil {
		return nil, err
	}
	book, err := sheet.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dates := d.Adapter.Detect(book, time.Now(), diag.OrDiscard(d.Sink))
	return &inspection{
		deps:    d,
		book:    book,
		dates:   dates,
		formats: source.CollectFormats(d.Adapter, dates),
	}, nil
}

func newDetectCmd(a *app) *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "detect <workbook.xlsx>",
		Short: "List the broadcast days and formats found in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inspect(a.cfg, channel, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d days (%s layout, channel %s)\n",
				in.book.Name, len(in.dates), in.deps.Adapter.Kind(), in.deps.Channel)
			if len(in.dates) == 0 {
				return fmt.Errorf("%w in workbook %q", jobs.ErrNoDays, in.book.Name)
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tSHEET\tROW\tROWS")
			for _, d := range in.dates {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", d.Key(), d.Sheet, d.Row, len(d.Rows))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			scan := in.deps.Icons.Scan(in.formats)
			fmt.Fprintf(w, "formats: %d (%d without icon)\n", len(in.formats), len(scan.Missing))
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel key (defaults to the configured channel)")
	return cmd
}

// printScan lists found and missing formats with suggestions for the latter.
func printScan(cmd *cobra.Command, table *formats.Table, detected []string) {
	w := cmd.OutOrStdout()
	scan := table.Scan(detected)
	suggestions := table.Suggestions(scan.Missing)

	fmt.Fprintf(w, "found %d of %d formats\n", len(scan.Found), len(detected))
	for _, f := range scan.Found {
		fmt.Fprintf(w, "  ok       %s -> %s\n", f, table.Resolve(f))
	}
	for _, f := range scan.Missing {
		if s, ok := suggestions[f]; ok {
			fmt.Fprintf(w, "  missing  %s (did you mean %q?)\n", f, s)
			continue
		}
		fmt.Fprintf(w, "  missing  %s\n", f)
	}
}
