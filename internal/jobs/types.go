// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/source"
)

// ErrNoDays is returned when a workbook yields no day to convert.
var ErrNoDays = errors.New("no broadcast day detected")

// FileWriter defines the interface for writing files atomically
type FileWriter interface {
	WriteAtomic(ctx context.Context, path string, data []byte) error
}

// MetricsRecorder defines the interface for recording metrics
type MetricsRecorder interface {
	RecordRun(channel string, err error, elapsed time.Duration)
	RecordDay(channel, outcome string, scheduled, fillers int)
	IncXMLTVWriteError()
}

// Options controls one conversion run.
type Options struct {
	OutputDir   string
	DryRun      bool     // Render documents but skip file writes
	Parallelism int      // Max days reconciled at once (0 = 1)
	Days        []string // Limit the run to these YYYY-MM-DD days; empty means all
}

// Deps holds all dependencies for a conversion run.
type Deps struct {
	Channel    string // configuration key, used for logs and metrics
	Adapter    source.Adapter
	Serializer *epg.Serializer
	Params     epg.Params
	// Icons, when set, is scanned for formats that have no icon.
	Icons   *formats.Table
	Sink    diag.Sink
	Writer  FileWriter
	Metrics MetricsRecorder
	Clock   func() time.Time
}

// DayResult describes one converted day.
type DayResult struct {
	Day              string            `json:"day"`
	Sheet            string            `json:"sheet,omitempty"`
	Path             string            `json:"path,omitempty"`
	Programs         int               `json:"programs"`
	Fillers          int               `json:"fillers"`
	ScheduledSeconds int64             `json:"scheduled_seconds"`
	TotalSeconds     int64             `json:"total_seconds"`
	CoverageMinutes  int               `json:"coverage_minutes"`
	Anomalies        map[diag.Kind]int `json:"anomalies,omitempty"`
	Warning          string            `json:"warning,omitempty"`
	Document         []byte            `json:"-"`
}

// Summary is the outcome of a conversion run.
type Summary struct {
	RunID          string            `json:"run_id"`
	Channel        string            `json:"channel"`
	Source         source.Kind       `json:"source"`
	Workbook       string            `json:"workbook,omitempty"`
	DryRun         bool              `json:"dry_run"`
	StartTime      time.Time         `json:"start_time"`
	EndTime        time.Time         `json:"end_time"`
	DurationMS     int64             `json:"duration_ms"`
	Days           []DayResult       `json:"days"`
	Programs       int               `json:"programs"`
	Fillers        int               `json:"fillers"`
	Anomalies      map[diag.Kind]int `json:"anomalies"`
	MissingFormats []string          `json:"missing_formats,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// DefaultOptions returns sensible default options
func DefaultOptions() Options {
	return Options{
		OutputDir:   ".",
		Parallelism: 1,
	}
}
