// SPDX-License-Identifier: MIT

// Package source adapts raw schedule rows into program candidates.
//
// Two layouts exist: a grid workbook with one sheet per day, and a single
// row stream where day-marker rows switch the current date. Both produce
// the same candidate contract, so the reconciler never branches on layout.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/temporal"
	"github.com/ManuGH/epgconv/internal/timeline"
)

// ErrUnknownKind is returned for an unregistered layout name.
var ErrUnknownKind = errors.New("unknown source kind")

// Kind names a source layout.
type Kind string

const (
	KindGrid      Kind = "grid"
	KindRowStream Kind = "rowstream"
)

// DetectedDate pairs a broadcast day with where its rows live.
type DetectedDate struct {
	Date  time.Time
	Sheet string
	// Row is the index of the cell or marker row the date was found in.
	Row  int
	Rows []sheet.Row
}

// Key renders the date as YYYY-MM-DD.
func (d DetectedDate) Key() string { return temporal.DayKey(d.Date) }

// Adapter is one source layout.
type Adapter interface {
	Kind() Kind
	// Detect lists the broadcast days present in a workbook, chronologically.
	Detect(book *sheet.Workbook, now time.Time, sink diag.Sink) []DetectedDate
	// Programs returns the unordered candidates for day found in rows.
	Programs(rows []sheet.Row, day time.Time, sink diag.Sink) []timeline.Program
	// Formats lists the distinct trimmed program titles seen in rows.
	Formats(rows []sheet.Row) []string
	// Filler is the look of synthesized entries for this source.
	Filler() timeline.FillerStyle
}

// FillerTitles are the configurable filler labels shared by all layouts.
type FillerTitles struct {
	FullDay string
	Partial string
}

// DefaultFillerTitles are used when none are configured.
var DefaultFillerTitles = FillerTitles{FullDay: "Programmazione", Partial: "Programmazione notturna"}

// New returns the adapter registered under kind.
func New(kind Kind, titles FillerTitles) (Adapter, error) {
	if titles.FullDay == "" {
		titles.FullDay = DefaultFillerTitles.FullDay
	}
	if titles.Partial == "" {
		titles.Partial = DefaultFillerTitles.Partial
	}
	switch kind {
	case KindGrid:
		return &Grid{Titles: titles}, nil
	case KindRowStream:
		return &RowStream{Titles: titles}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Kinds lists every registered layout.
func Kinds() []Kind { return []Kind{KindGrid, KindRowStream} }

// CollectFormats unions the formats of every distinct sheet behind dates.
func CollectFormats(a Adapter, dates []DetectedDate) []string {
	set := make(map[string]struct{})
	visited := make(map[string]bool)
	for _, d := range dates {
		if visited[d.Sheet] {
			continue
		}
		visited[d.Sheet] = true
		for _, f := range a.Formats(d.Rows) {
			set[f] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortDates(dates []DetectedDate) {
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })
}

// cellText renders a cell as trimmed display text.
func cellText(c sheet.Cell) string {
	return strings.TrimSpace(c.String())
}

func skipped(sink diag.Sink, day time.Time, row int, detail string) {
	sink.Report(diag.Entry{
		Kind:   diag.KindRowSkipped,
		Day:    temporal.DayKey(day),
		Detail: fmt.Sprintf("row %d: %s", row+1, detail),
	})
}
