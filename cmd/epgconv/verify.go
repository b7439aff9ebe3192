// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/verify"
)

var errProblems = errors.New("schedule has errors")

func newVerifyCmd() *cobra.Command {
	var (
		channel string
		asJSON  bool
		strict  bool
		top     int
	)
	cmd := &cobra.Command{
		Use:         "verify <document.xml>",
		Short:       "Report statistics, overlaps and gaps of an XMLTV document",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := epg.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, skipped := verify.Entries(doc, channel)
			stats := verify.Analyze(entries)
			problems := verify.Problems(entries)

			w := cmd.OutOrStdout()
			if asJSON {
				if problems == nil {
					problems = []verify.Problem{}
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{"stats": stats, "problems": problems}); err != nil {
					return err
				}
			} else if err := printVerify(w, stats, problems, top); err != nil {
				return err
			}
			if skipped != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", skipped)
			}

			if strict {
				n := 0
				for _, p := range problems {
					if p.Severity == verify.SeverityError {
						n++
					}
				}
				if n > 0 {
					return fmt.Errorf("%w: %d", errProblems, n)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "only check programmes of this channel id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the report contains errors")
	cmd.Flags().IntVar(&top, "top", 10, "number of formats listed")
	return cmd
}

func printVerify(w io.Writer, st verify.Stats, problems []verify.Problem, top int) error {
	fmt.Fprintf(w, "programmes: %d\n", st.Programmes)
	fmt.Fprintf(w, "coverage: %.1fh (%ds)\n", st.CoverageHours, st.TotalSeconds)
	fmt.Fprintf(w, "average: %s\n", time.Duration(st.AverageSeconds)*time.Second)
	fmt.Fprintf(w, "gaps: %d\n", st.Gaps)
	fmt.Fprintf(w, "formats: %d\n", st.UniqueFormats)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, f := range st.Formats {
		if i == top {
			break
		}
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%.1f%%\n", f.Title, f.Count, time.Duration(f.Seconds)*time.Second, f.Percent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(problems) == 0 {
		fmt.Fprintln(w, "no problems found")
		return nil
	}
	fmt.Fprintf(w, "problems: %d\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(w, "  %-7s %s\n", p.Severity, p.Message)
	}
	return nil
}

func newShiftCmd() *cobra.Command {
	var (
		to  string
		out string
	)
	cmd := &cobra.Command{
		Use:         "shift <document.xml>",
		Short:       "Move a schedule by whole days so that it starts on a new date",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now().UTC()
			if to != "" {
				t, err := time.Parse(time.DateOnly, to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				start = t
			}
			doc, err := epg.ReadFile(args[0])
			if err != nil {
				return err
			}
			days, err := verify.Shift(doc, start)
			if err != nil {
				return err
			}
			data, err := epg.Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "shifted by %d days\n", days)
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return jobs.AtomicWriter{}.WriteAtomic(cmd.Context(), out, data)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "new first day (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout)")
	return cmd
}
