// SPDX-License-Identifier: MIT

package source

import (
	"strings"
	"time"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/temporal"
	"github.com/ManuGH/epgconv/internal/timeline"
)

// Row-stream column layout.
const (
	colTime      = 0
	colTitle     = 1
	colID        = 2
	colCategory  = 6
	colCategory2 = 7
	colRating    = 13
	colShortDesc = 15
	colLongDesc  = 16

	minProgramCols = 10

	rowStreamCategory = "Informazione"
	fillerDayID       = "FILLER_DAY"
	fillerNightID     = "FILLER_NIGHT"
)

// RowStream reads the first sheet as one continuous stream. A row holding a
// single value is a day marker; wide rows are programs of the current day.
type RowStream struct {
	Titles FillerTitles
}

// Kind implements Adapter.
func (s *RowStream) Kind() Kind { return KindRowStream }

// Detect implements Adapter. Every in-window day marker yields one date.
func (s *RowStream) Detect(book *sheet.Workbook, now time.Time, sink diag.Sink) []DetectedDate {
	sink = diag.OrDiscard(sink)
	first := book.First()
	if first == nil {
		sink.Report(diag.Entry{Kind: diag.KindDateUndetected, Detail: "workbook has no sheets"})
		return nil
	}

	seen := make(map[string]bool)
	var out []DetectedDate
	for i, row := range first.Rows {
		c, ok := markerCell(row)
		if !ok {
			continue
		}
		date, ok := temporal.ParseDetectedDate(c, now)
		if !ok {
			continue
		}
		key := temporal.DayKey(date)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, DetectedDate{Date: date, Sheet: first.Name, Row: i, Rows: first.Rows})
	}
	if len(out) == 0 {
		sink.Report(diag.Entry{Kind: diag.KindDateUndetected, Detail: "no day markers in sheet " + first.Name})
	}
	sortDates(out)
	return out
}

// markerCell returns the only non-empty cell of a day-marker row.
func markerCell(row sheet.Row) (sheet.Cell, bool) {
	if row.NonEmpty() != 1 {
		return sheet.Cell{}, false
	}
	for _, c := range row {
		if !c.IsEmpty() {
			return c, true
		}
	}
	return sheet.Cell{}, false
}

// Programs implements Adapter. Only programs whose start falls on day's
// calendar date are returned.
func (s *RowStream) Programs(rows []sheet.Row, day time.Time, sink diag.Sink) []timeline.Program {
	sink = diag.OrDiscard(sink)
	target := temporal.DayKey(day)
	current := day

	var out []timeline.Program
	for i, row := range rows {
		if c, ok := markerCell(row); ok {
			if date, ok := temporal.ParseDate(c); ok {
				current = date
			}
			continue
		}
		if len(row) < minProgramCols {
			continue
		}

		title := cellText(row.At(colTitle))
		id := cellText(row.At(colID))
		if title == "" || id == "" {
			skipped(sink, current, i, "missing title or asset id")
			continue
		}
		start, ok := temporal.ParseTime(row.At(colTime), current)
		if !ok {
			skipped(sink, current, i, "unparseable start time")
			continue
		}
		if temporal.DayKey(start) != target {
			continue
		}

		category := cellText(row.At(colCategory))
		if category == "" {
			category = cellText(row.At(colCategory2))
		}
		out = append(out, timeline.Program{
			Start:     start,
			Title:     title,
			ProgramID: id,
			Category:  category,
			Rating:    cellText(row.At(colRating)),
			ShortDesc: cellText(row.At(colShortDesc)),
			LongDesc:  cellText(row.At(colLongDesc)),
		})
	}
	return out
}

// Formats implements Adapter. The first row is a header and is skipped.
func (s *RowStream) Formats(rows []sheet.Row) []string {
	set := make(map[string]struct{})
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		c := row.At(colTitle)
		if len(row) < minProgramCols || c.Kind != sheet.KindText {
			continue
		}
		if f := strings.TrimSpace(c.Text); f != "" {
			set[f] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Filler implements Adapter.
func (s *RowStream) Filler() timeline.FillerStyle {
	return timeline.FillerStyle{
		FullDayTitle: s.Titles.FullDay,
		PartialTitle: s.Titles.Partial,
		Category:     rowStreamCategory,
		FullDayID:    fillerDayID,
		PartialID:    fillerNightID,
	}
}
