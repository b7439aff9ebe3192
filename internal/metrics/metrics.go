// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus counters for conversion runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/epgconv/internal/diag"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgconv_runs_total",
		Help: "Conversion runs by channel and outcome",
	}, []string{"channel", "outcome"}) // outcome=success|failure

	runDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "epgconv_run_duration_seconds",
		Help:    "Wall time of a conversion run",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	lastRunTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epgconv_last_run_timestamp_seconds",
		Help: "Unix time of the last successful run per channel",
	}, []string{"channel"})

	daysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgconv_days_total",
		Help: "Days reconciled by channel and outcome",
	}, []string{"channel", "outcome"}) // outcome=written|dry_run|empty

	programsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgconv_programs_total",
		Help: "Programs emitted by channel and kind",
	}, []string{"channel", "kind"}) // kind=scheduled|filler

	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgconv_diagnostics_total",
		Help: "Anomalies reported during reconciliation by kind",
	}, []string{"kind"})

	xmltvWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epgconv_xmltv_write_errors_total",
		Help: "Total number of XMLTV write failures",
	})

	httpUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgconv_http_uploads_total",
		Help: "Workbook uploads received over HTTP by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeWritten = "written"
	OutcomeDryRun  = "dry_run"
	OutcomeEmpty   = "empty"
)

// RecordRun records the end of a conversion run.
func RecordRun(channel string, err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	} else {
		lastRunTimestamp.WithLabelValues(channel).SetToCurrentTime()
	}
	runsTotal.WithLabelValues(channel, outcome).Inc()
	runDurationSeconds.WithLabelValues(channel).Observe(elapsed.Seconds())
}

// RecordDay records one reconciled day.
func RecordDay(channel, outcome string, scheduled, fillers int) {
	daysTotal.WithLabelValues(channel, outcome).Inc()
	programsTotal.WithLabelValues(channel, "scheduled").Add(float64(scheduled))
	programsTotal.WithLabelValues(channel, "filler").Add(float64(fillers))
}

// IncXMLTVWriteError counts a failed output write.
func IncXMLTVWriteError() { xmltvWriteErrors.Inc() }

// RecordUpload counts one HTTP workbook upload.
func RecordUpload(endpoint string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	httpUploadsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// Recorder exposes the package functions as a value, for callers that take
// their metrics through an interface.
type Recorder struct{}

func (Recorder) RecordRun(channel string, err error, elapsed time.Duration) {
	RecordRun(channel, err, elapsed)
}

func (Recorder) RecordDay(channel, outcome string, scheduled, fillers int) {
	RecordDay(channel, outcome, scheduled, fillers)
}

func (Recorder) IncXMLTVWriteError() { IncXMLTVWriteError() }

// DiagSink counts every reported anomaly by kind.
var DiagSink diag.Sink = diag.SinkFunc(func(e diag.Entry) {
	diagnosticsTotal.WithLabelValues(string(e.Kind)).Inc()
})

// WriteTextfile writes the default registry in the node_exporter textfile
// format, replacing path atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
