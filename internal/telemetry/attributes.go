// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by conversion spans.
const (
	RunIDKey     = "epgconv.run_id"
	ChannelKey   = "epgconv.channel"
	SourceKey    = "epgconv.source"
	DayKey       = "epgconv.day"
	DaysKey      = "epgconv.days"
	ProgramsKey  = "epgconv.programs"
	FillersKey   = "epgconv.fillers"
	AnomaliesKey = "epgconv.anomalies"
	DryRunKey    = "epgconv.dry_run"
	WorkbookKey  = "epgconv.workbook"
	ErrorTypeKey = "error.type"
)

// RunAttributes describes a conversion run.
func RunAttributes(runID, channel, sourceKind, workbook string, dryRun bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(RunIDKey, runID),
		attribute.String(ChannelKey, channel),
		attribute.String(SourceKey, sourceKind),
		attribute.Bool(DryRunKey, dryRun),
	}
	if workbook != "" {
		attrs = append(attrs, attribute.String(WorkbookKey, workbook))
	}
	return attrs
}

// DayAttributes describes one reconciled day.
func DayAttributes(day string, programs, fillers, anomalies int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DayKey, day),
		attribute.Int(ProgramsKey, programs),
		attribute.Int(FillersKey, fillers),
		attribute.Int(AnomaliesKey, anomalies),
	}
}

// ErrorAttributes classifies a failure.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(ErrorTypeKey, errorType)}
}
