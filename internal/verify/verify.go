// SPDX-License-Identifier: MIT

// Package verify inspects produced XMLTV documents: coverage statistics,
// overlap and gap problems, and shifting a schedule to new dates.
package verify

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ManuGH/epgconv/internal/epg"
)

// ErrNoProgrammes is returned when a document carries nothing to act on.
var ErrNoProgrammes = errors.New("document has no programmes")

const (
	// Gaps up to this long are tolerated.
	gapTolerance = time.Minute
	// Gaps of more whole minutes than this are errors rather than warnings.
	gapErrorMinutes = 30
)

// Entry is one programme with its timestamps decoded.
type Entry struct {
	Index   int
	Channel string
	Title   string
	Start   time.Time
	Stop    time.Time
}

// Duration is Stop minus Start.
func (e Entry) Duration() time.Duration { return e.Stop.Sub(e.Start) }

// Entries decodes every programme of doc, optionally limited to one channel.
// Programmes with unreadable timestamps are skipped; their errors are joined.
func Entries(doc *epg.TV, channel string) ([]Entry, error) {
	var (
		out  []Entry
		errs []error
	)
	for i, p := range doc.Programmes {
		if channel != "" && p.Channel != channel {
			continue
		}
		start, err := epg.ParseTime(p.Start)
		if err != nil {
			errs = append(errs, fmt.Errorf("programme %d start: %w", i, err))
			continue
		}
		stop, err := epg.ParseTime(p.Stop)
		if err != nil {
			errs = append(errs, fmt.Errorf("programme %d stop: %w", i, err))
			continue
		}
		out = append(out, Entry{Index: i, Channel: p.Channel, Title: p.Title.Value, Start: start, Stop: stop})
	}
	return out, errors.Join(errs...)
}

func sorted(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// FormatGroup aggregates the programmes sharing one title.
type FormatGroup struct {
	Title   string  `json:"title"`
	Count   int     `json:"count"`
	Seconds int64   `json:"seconds"`
	Percent float64 `json:"percent"`
}

// Stats summarises a schedule.
type Stats struct {
	Programmes     int           `json:"programmes"`
	TotalSeconds   int64         `json:"total_seconds"`
	CoverageHours  float64       `json:"coverage_hours"`
	Gaps           int           `json:"gaps"`
	UniqueFormats  int           `json:"unique_formats"`
	AverageSeconds int64         `json:"average_seconds"`
	Formats        []FormatGroup `json:"formats"`
}

// Analyze computes coverage statistics. Formats are ordered by total
// duration, longest first.
func Analyze(entries []Entry) Stats {
	st := Stats{Programmes: len(entries), Formats: []FormatGroup{}}
	if len(entries) == 0 {
		return st
	}

	groups := make(map[string]*FormatGroup)
	for _, e := range entries {
		secs := int64(e.Duration() / time.Second)
		st.TotalSeconds += secs
		g, ok := groups[e.Title]
		if !ok {
			g = &FormatGroup{Title: e.Title}
			groups[e.Title] = g
		}
		g.Count++
		g.Seconds += secs
	}
	st.CoverageHours = float64(st.TotalSeconds) / 3600
	st.UniqueFormats = len(groups)
	st.AverageSeconds = st.TotalSeconds / int64(len(entries))

	ordered := sorted(entries)
	for i := 0; i+1 < len(ordered); i++ {
		if ordered[i+1].Start.After(ordered[i].Stop) {
			st.Gaps++
		}
	}

	for _, g := range groups {
		if st.TotalSeconds > 0 {
			g.Percent = float64(g.Seconds) * 100 / float64(st.TotalSeconds)
		}
		st.Formats = append(st.Formats, *g)
	}
	sort.Slice(st.Formats, func(i, j int) bool {
		if st.Formats[i].Seconds != st.Formats[j].Seconds {
			return st.Formats[i].Seconds > st.Formats[j].Seconds
		}
		return st.Formats[i].Title < st.Formats[j].Title
	})
	return st
}

// Severity grades a problem.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ProblemKind names what is wrong.
type ProblemKind string

const (
	ProblemOverlap ProblemKind = "overlap"
	ProblemGap     ProblemKind = "gap"
)

// Problem is one defect found in a schedule.
type Problem struct {
	Kind     ProblemKind `json:"kind"`
	Severity Severity    `json:"severity"`
	At       time.Time   `json:"at"`
	Seconds  int64       `json:"seconds"`
	First    string      `json:"first"`
	Second   string      `json:"second,omitempty"`
	Message  string      `json:"message"`
}

// Problems reports every overlapping pair and every gap longer than a minute.
func Problems(entries []Entry) []Problem {
	var out []Problem
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if !(a.Stop.After(b.Start) && a.Start.Before(b.Stop)) {
				continue
			}
			from := maxTime(a.Start, b.Start)
			overlap := minTime(a.Stop, b.Stop).Sub(from)
			out = append(out, Problem{
				Kind:     ProblemOverlap,
				Severity: SeverityError,
				At:       from,
				Seconds:  int64(overlap / time.Second),
				First:    a.Title,
				Second:   b.Title,
				Message:  fmt.Sprintf("%d minute overlap between %q and %q", int(overlap/time.Minute), a.Title, b.Title),
			})
		}
	}

	ordered := sorted(entries)
	for i := 0; i+1 < len(ordered); i++ {
		gap := ordered[i+1].Start.Sub(ordered[i].Stop)
		if gap <= gapTolerance {
			continue
		}
		sev := SeverityWarning
		if int(gap/time.Minute) > gapErrorMinutes {
			sev = SeverityError
		}
		out = append(out, Problem{
			Kind:     ProblemGap,
			Severity: sev,
			At:       ordered[i].Stop,
			Seconds:  int64(gap / time.Second),
			First:    ordered[i].Title,
			Message: fmt.Sprintf("%d minute gap after %q (%s)", int(gap/time.Minute), ordered[i].Title,
				ordered[i].Stop.Format("02/01/2006 15:04")),
		})
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Shift moves every programme of doc by whole days so that the earliest one
// falls on newStart's UTC date, and updates the document date. It returns
// the number of days moved; zero leaves doc untouched.
func Shift(doc *epg.TV, newStart time.Time) (int, error) {
	entries, err := Entries(doc, "")
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, ErrNoProgrammes
	}

	earliest := entries[0].Start
	for _, e := range entries[1:] {
		if e.Start.Before(earliest) {
			earliest = e.Start
		}
	}
	from := utcDay(earliest)
	to := utcDay(newStart)
	days := int(to.Sub(from).Hours() / 24)
	if days == 0 {
		return 0, nil
	}

	for _, e := range entries {
		p := &doc.Programmes[e.Index]
		p.Start = epg.FormatWire(e.Start.AddDate(0, 0, days))
		p.Stop = epg.FormatWire(e.Stop.AddDate(0, 0, days))
	}
	doc.Date = to.Format("2006-01-02")
	return days, nil
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
