// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"

	// Conversion fields
	FieldEvent   = "event"
	FieldChannel = "channel"
	FieldSource  = "source"
	FieldDay     = "day"
	FieldSheet   = "sheet"
	FieldTitle   = "title"

	// Path fields
	FieldPath      = "path"
	FieldFinalPath = "final_path"
)
