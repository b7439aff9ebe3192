// SPDX-License-Identifier: MIT

package epg

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadTimestamp is returned for attribute values in no supported grammar.
var ErrBadTimestamp = errors.New("unrecognized xmltv timestamp")

const (
	wireLayout    = "20060102T150405"
	classicLayout = "20060102150405"
	isoLayout     = "2006-01-02T15:04:05"
	utcMarker     = "+0000"
)

var (
	compactPattern = regexp.MustCompile(`^(\d{8}T\d{6})\s*(?:Z|[+-]\d{2}:?\d{2})?$`)
	classicPattern = regexp.MustCompile(`^(\d{14})\s*(?:Z|[+-]\d{2}:?\d{2})?$`)
	isoPattern     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})(?:\.\d+)?\s*(?:Z|[+-]\d{2}:?\d{2})?$`)
)

// Offset converts a UTC offset in hours, possibly fractional, to a duration.
func Offset(hours float64) time.Duration {
	return time.Duration(math.Round(hours*3600)) * time.Second
}

// ToUTC shifts a local wall-clock instant to UTC for the given offset.
func ToUTC(local time.Time, offsetHours float64) time.Time {
	return local.Add(-Offset(offsetHours)).UTC()
}

// FormatWire renders a UTC instant as YYYYMMDDTHHMMSS+0000.
func FormatWire(t time.Time) string {
	return t.UTC().Format(wireLayout) + utcMarker
}

// FormatClassic renders a UTC instant as YYYYMMDDHHMMSS +0000.
func FormatClassic(t time.Time) string {
	return t.UTC().Format(classicLayout) + " " + utcMarker
}

// FormatISO renders a UTC instant as YYYY-MM-DDTHH:MM:SS+0000.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout) + utcMarker
}

// ParseTime reads a start/stop attribute in the wire, classic or ISO form.
// Any offset suffix is taken as already applied: the result is the written
// wall clock in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	grammars := []struct {
		pattern *regexp.Regexp
		layout  string
	}{
		{compactPattern, wireLayout},
		{classicPattern, classicLayout},
		{isoPattern, isoLayout},
	}
	for _, g := range grammars {
		m := g.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		t, err := time.ParseInLocation(g.layout, m[1], time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadTimestamp, s, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// IsoOffset formats an offset in hours as +HH:MM for display.
func IsoOffset(hours float64) string {
	d := Offset(hours)
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	return fmt.Sprintf("%s%02d:%02d", sign, int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// ParseOffset reads an offset in hours such as "2", "+5.5" or "-03:30".
func ParseOffset(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty offset")
	}
	if h, m, ok := strings.Cut(s, ":"); ok {
		hours, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("parse offset %q: %w", s, err)
		}
		minutes, err := strconv.Atoi(m)
		if err != nil || minutes < 0 || minutes > 59 {
			return 0, fmt.Errorf("parse offset %q: bad minutes", s)
		}
		frac := float64(minutes) / 60
		if strings.HasPrefix(h, "-") {
			return float64(hours) - frac, nil
		}
		return float64(hours) + frac, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse offset %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse offset %q: not a number", s)
	}
	return v, nil
}
