// SPDX-License-Identifier: MIT

// Package validate accumulates field-level validation errors.
package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Error is one failed check.
type Error struct {
	Field   string
	Value   any
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// ValidationError is the error returned by Validator.Err.
type ValidationError struct {
	errors []Error
}

// Errors returns the failed checks in the order they were recorded.
func (e ValidationError) Errors() []Error { return e.errors }

func (e ValidationError) Error() string {
	msgs := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validator collects errors from a series of checks. The zero value is ready to use.
type Validator struct {
	errs []Error
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// AddError records a failed check.
func (v *Validator) AddError(field, message string, value any) {
	v.errs = append(v.errs, Error{Field: field, Value: value, Message: message})
}

// failf records a failed check unless ok holds. It reports whether the check passed.
func (v *Validator) failf(ok bool, field string, value any, format string, args ...any) bool {
	if !ok {
		v.AddError(field, fmt.Sprintf(format, args...), value)
	}
	return ok
}

// IsValid reports whether every check so far passed.
func (v *Validator) IsValid() bool { return len(v.errs) == 0 }

// Errors returns the failed checks recorded so far.
func (v *Validator) Errors() []Error { return v.errs }

// Err returns nil when every check passed, else a ValidationError holding a
// snapshot of the failed checks.
func (v *Validator) Err() error {
	if v.IsValid() {
		return nil
	}
	return ValidationError{errors: slices.Clone(v.errs)}
}

// NotEmpty fails for empty or whitespace-only values.
func (v *Validator) NotEmpty(field, value string) {
	v.failf(strings.TrimSpace(value) != "", field, value, "value cannot be empty")
}

// OneOf fails unless value is in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	v.failf(slices.Contains(allowed, value), field, value, "value must be one of %v, got %q", allowed, value)
}

// Range fails unless minVal <= value <= maxVal.
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	v.failf(value >= minVal && value <= maxVal, field, value,
		"value must be between %d and %d, got %d", minVal, maxVal, value)
}

// FloatRange is Range for finite floats; NaN always fails.
func (v *Validator) FloatRange(field string, value, minVal, maxVal float64) {
	v.failf(!math.IsNaN(value) && value >= minVal && value <= maxVal, field, value,
		"value must be between %g and %g, got %g", minVal, maxVal, value)
}

// URL fails unless value is an absolute URL with a host and, when schemes
// is not empty, one of the given schemes.
func (v *Validator) URL(field, value string, schemes []string) {
	if !v.failf(value != "", field, value, "URL cannot be empty") {
		return
	}
	u, err := url.Parse(value)
	if !v.failf(err == nil, field, value, "invalid URL: %v", err) {
		return
	}
	if !v.failf(u.Host != "", field, value, "URL must have a host") {
		return
	}
	v.failf(len(schemes) == 0 || slices.Contains(schemes, u.Scheme), field, value,
		"unsupported URL scheme %q (allowed: %v)", u.Scheme, schemes)
}

// ListenAddr fails unless addr is host:port with a numeric port in 1-65535.
// The host may be empty.
func (v *Validator) ListenAddr(field, addr string) {
	_, p, err := net.SplitHostPort(addr)
	if !v.failf(err == nil, field, addr, "invalid listen address: %v", err) {
		return
	}
	port, err := strconv.Atoi(p)
	if !v.failf(err == nil, field, addr, "invalid port %q", p) {
		return
	}
	v.failf(port > 0 && port <= 65535, field, addr, "port must be between 1 and 65535, got %d", port)
}

// LogLevels are the accepted log level names.
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// LogLevel accepts an empty level (the default) or one of LogLevels, in any case.
func (v *Validator) LogLevel(field, level string) {
	if level != "" {
		v.OneOf(field, strings.ToLower(level), LogLevels)
	}
}

// Dir fails when path is empty or names something other than a directory.
// A missing path passes; output directories are created on first write.
func (v *Validator) Dir(field, path string) {
	if !v.failf(strings.TrimSpace(path) != "", field, path, "directory path cannot be empty") {
		return
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		v.AddError(field, fmt.Sprintf("cannot access directory: %v", err), path)
	default:
		v.failf(info.IsDir(), field, path, "path is not a directory")
	}
}
