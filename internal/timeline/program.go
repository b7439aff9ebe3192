// SPDX-License-Identifier: MIT

// Package timeline turns unordered program candidates into a gap-free,
// non-overlapping schedule covering exactly one broadcast day.
package timeline

import (
	"time"
)

// Program is one schedule entry. Instants are local wall-clock values
// carried in time.UTC; a zero End means the source gave no explicit end.
type Program struct {
	Start time.Time
	End   time.Time

	Title       string
	Description string
	ShortDesc   string
	LongDesc    string
	Category    string
	Rating      string
	ProgramID   string

	IsFiller bool

	// Set when the program was clipped to the day window. Not serialized.
	AdjustedStart bool
	AdjustedEnd   bool
}

// Duration is End minus Start, or zero while End is unknown.
func (p Program) Duration() time.Duration {
	if p.End.IsZero() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// DurationSeconds is Duration in whole seconds.
func (p Program) DurationSeconds() int64 {
	return int64(p.Duration() / time.Second)
}

// DayWindow is the half-open interval [Start, End) of one local calendar day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// NewDayWindow returns the window of the calendar day containing date.
func NewDayWindow(date time.Time) DayWindow {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Key renders the window's date as YYYY-MM-DD.
func (w DayWindow) Key() string { return w.Start.Format("2006-01-02") }

// Contains reports whether t lies in [Start, End).
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Intersects reports whether [start, end) shares any instant with the window.
func (w DayWindow) Intersects(start, end time.Time) bool {
	return start.Before(w.End) && end.After(w.Start)
}

// LastSecond is the instant rendered as a day's closing time, 23:59:59.
func (w DayWindow) LastSecond() time.Time { return w.End.Add(-time.Second) }

// TotalSeconds sums the durations of progs.
func TotalSeconds(progs []Program) int64 {
	var n int64
	for _, p := range progs {
		n += p.DurationSeconds()
	}
	return n
}

// ScheduledSeconds sums the durations of non-filler programs.
func ScheduledSeconds(progs []Program) int64 {
	var n int64
	for _, p := range progs {
		if !p.IsFiller {
			n += p.DurationSeconds()
		}
	}
	return n
}

// Fillers counts synthesized entries.
func Fillers(progs []Program) int {
	n := 0
	for _, p := range progs {
		if p.IsFiller {
			n++
		}
	}
	return n
}
