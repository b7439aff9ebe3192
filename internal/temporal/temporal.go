// SPDX-License-Identifier: MIT

// Package temporal turns heterogeneous spreadsheet cells into instants.
//
// All instants are local wall-clock values carried in time.UTC; no zone math
// happens here. Parse failures are reported as ok == false, never as errors.
package temporal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/epgconv/internal/sheet"
)

// serialEpoch is day zero of spreadsheet serial dates: two days before
// 1900-01-01, matching the engine that counts a 29 February 1900.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	dmyPattern   = regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})(?:[ T,]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	clockPattern = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?:[:.](\d{2}))?$`)
	itPattern    = regexp.MustCompile(`(?i)(\d{1,2})\s+(gennaio|febbraio|marzo|aprile|maggio|giugno|luglio|agosto|settembre|ottobre|novembre|dicembre)\s+(\d{4})`)
)

var italianMonths = map[string]time.Month{
	"gennaio":   time.January,
	"febbraio":  time.February,
	"marzo":     time.March,
	"aprile":    time.April,
	"maggio":    time.May,
	"giugno":    time.June,
	"luglio":    time.July,
	"agosto":    time.August,
	"settembre": time.September,
	"ottobre":   time.October,
	"novembre":  time.November,
	"dicembre":  time.December,
}

// calendarLayouts is the generic calendar-text fallback, tried in order.
var calendarLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2 January 2006",
	"Monday, 2 January 2006",
	"January 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.ANSIC,
}

// FromSerial decodes a spreadsheet serial day count. The fractional part is
// the time of day, rounded to the millisecond.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > 2958465 {
		return time.Time{}, false
	}
	ms := math.Round(serial * float64(24*time.Hour/time.Millisecond))
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond), true
}

// ToSerial is the inverse of FromSerial.
func ToSerial(t time.Time) float64 {
	return float64(t.Sub(serialEpoch)) / float64(24*time.Hour)
}

// Day truncates an instant to the start of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey renders the calendar day as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate decodes a calendar date from a cell. Text is tried day-first
// (dd/mm/yyyy with '/', '-' or '.'), then Italian month names, then the
// generic calendar layouts. The result is truncated to the day.
func ParseDate(c sheet.Cell) (time.Time, bool) {
	switch c.Kind {
	case sheet.KindTime:
		return Day(c.Time), true
	case sheet.KindNumber:
		t, ok := FromSerial(c.Number)
		if !ok {
			return time.Time{}, false
		}
		return Day(t), true
	case sheet.KindText:
		t, ok := parseCalendarText(c.Text)
		if !ok {
			return time.Time{}, false
		}
		return Day(t), true
	default:
		return time.Time{}, false
	}
}

func parseCalendarText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(year, month, day); ok {
			if m[4] != "" {
				h, _ := strconv.Atoi(m[4])
				mi, _ := strconv.Atoi(m[5])
				sec, _ := strconv.Atoi(m[6])
				if h < 24 && mi < 60 && sec < 60 {
					t = t.Add(time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second)
				}
			}
			return t, true
		}
	}

	if m := itPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(year, int(italianMonths[strings.ToLower(m[2])]), day); ok {
			return t, true
		}
	}

	for _, layout := range calendarLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Keep the wall clock as written; zones are not honoured upstream.
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// makeDate rejects out-of-range components instead of letting time.Date normalise them.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseTime decodes a time of day from a cell and anchors it on base's
// calendar day. Only the clock of the cell is used; any date part is ignored.
func ParseTime(c sheet.Cell, base time.Time) (time.Time, bool) {
	var h, m, s int
	switch c.Kind {
	case sheet.KindTime:
		h, m, s = c.Time.Clock()
	case sheet.KindNumber:
		t, ok := FromSerial(c.Number)
		if !ok {
			return time.Time{}, false
		}
		h, m, s = t.Clock()
	case sheet.KindText:
		var ok bool
		h, m, s, ok = parseClockText(c.Text)
		if !ok {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}
	y, mo, d := base.Date()
	return time.Date(y, mo, d, h, m, s, 0, time.UTC), true
}

func parseClockText(s string) (h, m, sec int, ok bool) {
	s = strings.TrimSpace(s)
	if match := clockPattern.FindStringSubmatch(s); match != nil {
		h, _ = strconv.Atoi(match[1])
		m, _ = strconv.Atoi(match[2])
		if match[3] != "" {
			sec, _ = strconv.Atoi(match[3])
		}
		if h > 23 || m > 59 || sec > 59 {
			return 0, 0, 0, false
		}
		return h, m, sec, true
	}
	if t, found := parseCalendarText(s); found {
		h, m, sec = t.Clock()
		return h, m, sec, true
	}
	return 0, 0, 0, false
}

// WithinYear reports whether t lies within one year either side of now.
// Date detection uses it to discard stray numbers mistaken for dates.
func WithinYear(t, now time.Time) bool {
	now = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	return !t.Before(now.AddDate(-1, 0, 0)) && !t.After(now.AddDate(1, 0, 0))
}

// ParseDetectedDate combines ParseDate with the one-year plausibility window.
func ParseDetectedDate(c sheet.Cell, now time.Time) (time.Time, bool) {
	t, ok := ParseDate(c)
	if !ok || !WithinYear(t, now) {
		return time.Time{}, false
	}
	return t, true
}
