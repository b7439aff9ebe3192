// SPDX-License-Identifier: MIT

// Package diag carries conversion anomalies from the pipeline stages to
// whoever wants to see them. Sinks never fail and never abort a run.
package diag

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/epgconv/internal/log"
)

// Kind classifies a reported anomaly.
type Kind string

const (
	KindDuplicateRemoved Kind = "duplicate_removed"
	KindOverlapFixed     Kind = "overlap_fixed"
	KindGapFilled        Kind = "gap_filled"
	KindStartClipped     Kind = "start_clipped"
	KindEndClipped       Kind = "end_clipped"
	KindProgramDropped   Kind = "program_dropped"
	KindDurationInferred Kind = "duration_inferred"
	KindRowSkipped       Kind = "row_skipped"
	KindDayEmpty         Kind = "day_empty"
	KindDateUndetected   Kind = "date_undetected"
	KindMissingIcon      Kind = "missing_icon"
)

// Entry is one anomaly report. At is the local wall-clock instant the
// anomaly refers to; Seconds is the affected span where one applies.
type Entry struct {
	Kind    Kind
	Day     string
	Title   string
	At      time.Time
	Seconds int64
	Detail  string
}

// Sink receives anomaly reports. Implementations must be safe for
// concurrent use when shared between days.
type Sink interface {
	Report(Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Entry)

// Report implements Sink.
func (f SinkFunc) Report(e Entry) { f(e) }

// Discard drops every entry.
var Discard Sink = SinkFunc(func(Entry) {})

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Journal is an append-only in-memory sink.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// Report implements Sink.
func (j *Journal) Report(e Entry) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

// Entries returns a copy of everything reported so far, in report order.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Count returns the number of entries of the given kind.
func (j *Journal) Count(kind Kind) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Counts groups entries by kind.
func (j *Journal) Counts() map[Kind]int {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[Kind]int)
	for _, e := range j.entries {
		out[e.Kind]++
	}
	return out
}

// LogSink renders entries as structured log events.
type LogSink struct {
	Logger zerolog.Logger
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

// Report implements Sink. Gaps and clipping are routine and logged at debug.
func (s *LogSink) Report(e Entry) {
	var ev *zerolog.Event
	switch e.Kind {
	case KindGapFilled, KindStartClipped, KindEndClipped, KindDurationInferred:
		ev = s.Logger.Debug()
	case KindDayEmpty, KindDateUndetected, KindMissingIcon:
		ev = s.Logger.Warn()
	default:
		ev = s.Logger.Info()
	}
	ev = ev.Str(log.FieldEvent, "diag."+string(e.Kind)).Str(log.FieldDay, e.Day)
	if e.Title != "" {
		ev = ev.Str(log.FieldTitle, e.Title)
	}
	if !e.At.IsZero() {
		ev = ev.Str("at", e.At.Format("15:04:05"))
	}
	if e.Seconds != 0 {
		ev = ev.Int64("seconds", e.Seconds)
	}
	ev.Msg(e.Detail)
}

type multi []Sink

func (m multi) Report(e Entry) {
	for _, s := range m {
		s.Report(e)
	}
}

// Multi fans each entry out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
