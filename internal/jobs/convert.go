// SPDX-License-Identifier: MIT

// Package jobs runs conversions: detect the days of a workbook, reconcile
// each day, render it and write one XMLTV document per day.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/log"
	"github.com/ManuGH/epgconv/internal/metrics"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/source"
	"github.com/ManuGH/epgconv/internal/telemetry"
	"github.com/ManuGH/epgconv/internal/timeline"
)

const (
	tracerName     = "github.com/ManuGH/epgconv/internal/jobs"
	maxParallelism = 32
)

// Convert detects the broadcast days of book and produces one document per
// day. Documents are rendered for every day before any file is written; a
// write failure removes the files already written by this run.
func Convert(ctx context.Context, book *sheet.Workbook, deps Deps, opts Options) (*Summary, error) {
	if book == nil || deps.Adapter == nil || deps.Serializer == nil {
		return nil, fmt.Errorf("convert: workbook, adapter and serializer are required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	runID := uuid.NewString()
	ctx = log.ContextWithRunID(ctx, runID)
	logger := log.WithComponentFromContext(ctx, "jobs")

	sum := &Summary{
		RunID:     runID,
		Channel:   deps.Channel,
		Source:    deps.Adapter.Kind(),
		Workbook:  book.Name,
		DryRun:    opts.DryRun,
		StartTime: clock(),
		Anomalies: make(map[diag.Kind]int),
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "convert.run")
	span.SetAttributes(telemetry.RunAttributes(runID, deps.Channel, string(sum.Source), book.Name, opts.DryRun)...)
	defer span.End()

	logger.Info().
		Str(log.FieldEvent, "convert.start").
		Str(log.FieldChannel, deps.Channel).
		Str(log.FieldSource, string(sum.Source)).
		Str("workbook", book.Name).
		Bool("dry_run", opts.DryRun).
		Msg("starting conversion")

	err := convert(ctx, book, deps, opts, sum, sum.StartTime)

	sum.EndTime = clock()
	sum.DurationMS = sum.EndTime.Sub(sum.StartTime).Milliseconds()
	if deps.Metrics != nil {
		deps.Metrics.RecordRun(deps.Channel, err, sum.EndTime.Sub(sum.StartTime))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "convert.failed").
			Msg("conversion failed")
		return sum, err
	}

	span.SetAttributes(attribute.Int(telemetry.DaysKey, len(sum.Days)))
	logger.Info().
		Str(log.FieldEvent, "convert.success").
		Int("days", len(sum.Days)).
		Int("programs", sum.Programs).
		Int("fillers", sum.Fillers).
		Int64("duration_ms", sum.DurationMS).
		Msg("conversion completed")
	return sum, nil
}

func convert(ctx context.Context, book *sheet.Workbook, deps Deps, opts Options, sum *Summary, now time.Time) error {
	runSink := diag.Multi(deps.Sink, diag.SinkFunc(func(e diag.Entry) {
		// Run-level reports (detection, icons); day reports are merged later.
		sum.Anomalies[e.Kind]++
	}))

	dates := deps.Adapter.Detect(book, now, runSink)
	if len(dates) == 0 {
		return fmt.Errorf("%w in workbook %q", ErrNoDays, book.Name)
	}
	dates = selectDays(dates, opts.Days)
	if len(dates) == 0 {
		return fmt.Errorf("%w matching %v", ErrNoDays, opts.Days)
	}

	if deps.Icons != nil {
		sum.MissingFormats = reportMissingIcons(deps.Icons, source.CollectFormats(deps.Adapter, dates), runSink)
	}

	results, err := renderDays(ctx, dates, deps, opts)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if err := writeDays(ctx, results, deps); err != nil {
			return err
		}
	}

	for _, r := range results {
		outcome := metrics.OutcomeWritten
		if opts.DryRun {
			outcome = metrics.OutcomeDryRun
		}
		if r.Warning != "" {
			outcome = metrics.OutcomeEmpty
			sum.Warnings = append(sum.Warnings, r.Warning)
		}
		if deps.Metrics != nil {
			deps.Metrics.RecordDay(deps.Channel, outcome, r.Programs-r.Fillers, r.Fillers)
		}
		sum.Programs += r.Programs
		sum.Fillers += r.Fillers
		for k, n := range r.Anomalies {
			sum.Anomalies[k] += n
		}
	}
	sum.Days = results
	return nil
}

func selectDays(dates []source.DetectedDate, days []string) []source.DetectedDate {
	if len(days) == 0 {
		return dates
	}
	out := make([]source.DetectedDate, 0, len(days))
	for _, d := range dates {
		if slices.Contains(days, d.Key()) {
			out = append(out, d)
		}
	}
	return out
}

func reportMissingIcons(table *formats.Table, detected []string, sink diag.Sink) []string {
	scan := table.Scan(detected)
	suggestions := table.Suggestions(scan.Missing)
	for _, f := range scan.Missing {
		detail := "no icon configured"
		if s, ok := suggestions[f]; ok {
			detail = fmt.Sprintf("no icon configured (did you mean %q?)", s)
		}
		sink.Report(diag.Entry{Kind: diag.KindMissingIcon, Title: f, Detail: detail})
	}
	return scan.Missing
}

func clampParallelism(n, days int) int {
	if n < 1 {
		n = 1
	}
	if n > maxParallelism {
		n = maxParallelism
	}
	if n > days {
		n = days
	}
	return n
}

func renderDays(ctx context.Context, dates []source.DetectedDate, deps Deps, opts Options) ([]DayResult, error) {
	results := make([]DayResult, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clampParallelism(opts.Parallelism, len(dates)))
	for i, date := range dates {
		g.Go(func() error {
			res, err := renderDay(gctx, date, deps)
			if err != nil {
				return fmt.Errorf("day %s: %w", date.Key(), err)
			}
			if !opts.DryRun {
				res.Path = filepath.Join(opts.OutputDir, epg.FileName(res.Day))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderDay(ctx context.Context, date source.DetectedDate, deps Deps) (DayResult, error) {
	if err := ctx.Err(); err != nil {
		return DayResult{}, err
	}
	win := timeline.NewDayWindow(date.Date)
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "convert.day")
	defer span.End()
	logger := log.WithComponentFromContext(ctx, "jobs").With().Str(log.FieldDay, win.Key()).Logger()

	journal := &diag.Journal{}
	sink := diag.Multi(deps.Sink, journal)

	cands := deps.Adapter.Programs(date.Rows, date.Date, sink)
	progs := timeline.Reconcile(cands, win, timeline.Options{
		FillGaps: deps.Params.FillGaps,
		Filler:   deps.Adapter.Filler(),
	}, sink)

	res := DayResult{
		Day:              win.Key(),
		Sheet:            date.Sheet,
		Programs:         len(progs),
		Fillers:          timeline.Fillers(progs),
		ScheduledSeconds: timeline.ScheduledSeconds(progs),
		TotalSeconds:     timeline.TotalSeconds(progs),
	}
	res.CoverageMinutes = int(res.ScheduledSeconds / 60)

	if res.Programs == res.Fillers {
		res.Warning = fmt.Sprintf("no programs found for %s", res.Day)
		sink.Report(diag.Entry{Kind: diag.KindDayEmpty, Day: res.Day, At: win.Start, Detail: res.Warning})
		logger.Warn().
			Str(log.FieldEvent, "day.empty").
			Str(log.FieldSheet, date.Sheet).
			Msg("day has no programs")
	}
	res.Anomalies = journal.Counts()

	var buf bytes.Buffer
	if err := deps.Serializer.Render(&buf, progs, deps.Params, win); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DayResult{}, fmt.Errorf("render: %w", err)
	}
	res.Document = buf.Bytes()

	anomalies := 0
	for _, n := range res.Anomalies {
		anomalies += n
	}
	span.SetAttributes(telemetry.DayAttributes(res.Day, res.Programs, res.Fillers, anomalies)...)
	logger.Info().
		Str(log.FieldEvent, "day.reconciled").
		Int("programs", res.Programs).
		Int("fillers", res.Fillers).
		Int("coverage_minutes", res.CoverageMinutes).
		Int("anomalies", anomalies).
		Msg("day reconciled")
	return res, nil
}

func writeDays(ctx context.Context, results []DayResult, deps Deps) error {
	logger := log.WithComponentFromContext(ctx, "jobs")
	writer := deps.Writer
	if writer == nil {
		writer = AtomicWriter{}
	}

	written := make([]string, 0, len(results))
	for _, r := range results {
		if err := writer.WriteAtomic(ctx, r.Path, r.Document); err != nil {
			if deps.Metrics != nil {
				deps.Metrics.IncXMLTVWriteError()
			}
			for _, p := range written {
				if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
					logger.Warn().Err(rmErr).Str(log.FieldPath, p).Msg("remove partial output")
				}
			}
			return fmt.Errorf("write %s: %w", r.Path, err)
		}
		written = append(written, r.Path)
		logger.Info().
			Str(log.FieldEvent, "xmltv.written").
			Str(log.FieldDay, r.Day).
			Str(log.FieldFinalPath, r.Path).
			Int("bytes", len(r.Document)).
			Msg("xmltv document written")
	}
	return nil
}

// ConvertFile reads the workbook at path and converts it.
func ConvertFile(ctx context.Context, path string, deps Deps, opts Options) (*Summary, error) {
	book, err := sheet.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Convert(ctx, book, deps, opts)
}
