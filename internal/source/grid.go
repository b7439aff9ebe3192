// SPDX-License-Identifier: MIT

package source

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/temporal"
	"github.com/ManuGH/epgconv/internal/timeline"
)

const (
	// gridHeaderRows precede the first program row of a day sheet.
	gridHeaderRows = 3
	// The date sweep looks at this many rows and columns of each sheet.
	detectRows = 10
	detectCols = 5

	gridCategory = "Fashion"
)

var durationPattern = regexp.MustCompile(`(\d+):(\d+)(?::(\d+))?`)

// Grid reads one sheet per day: a three-row header carrying the date,
// then rows of [start, title, duration, description].
type Grid struct {
	Titles FillerTitles
}

// Kind implements Adapter.
func (g *Grid) Kind() Kind { return KindGrid }

// Detect implements Adapter. Each sheet contributes the first in-window date
// found in its top-left corner; sheets without one are reported and skipped.
func (g *Grid) Detect(book *sheet.Workbook, now time.Time, sink diag.Sink) []DetectedDate {
	sink = diag.OrDiscard(sink)
	var out []DetectedDate
	for _, sh := range book.Sheets {
		d, ok := detectInCorner(sh, now)
		if !ok {
			sink.Report(diag.Entry{Kind: diag.KindDateUndetected, Detail: "no date in sheet " + sh.Name})
			continue
		}
		out = append(out, d)
	}
	sortDates(out)
	return out
}

func detectInCorner(sh sheet.Sheet, now time.Time) (DetectedDate, bool) {
	for r := 0; r < len(sh.Rows) && r < detectRows; r++ {
		row := sh.Rows[r]
		for c := 0; c < len(row) && c < detectCols; c++ {
			if date, ok := temporal.ParseDetectedDate(row[c], now); ok {
				return DetectedDate{Date: date, Sheet: sh.Name, Row: r, Rows: sh.Rows}, true
			}
		}
	}
	return DetectedDate{}, false
}

// Programs implements Adapter. Every row with a title and a parseable start
// becomes a candidate; an unparseable duration leaves the end unset.
func (g *Grid) Programs(rows []sheet.Row, day time.Time, sink diag.Sink) []timeline.Program {
	sink = diag.OrDiscard(sink)
	var out []timeline.Program
	for i := gridHeaderRows; i < len(rows); i++ {
		row := rows[i]
		title := cellText(row.At(1))
		if title == "" || row.At(0).IsEmpty() {
			continue
		}
		start, ok := temporal.ParseTime(row.At(0), day)
		if !ok {
			skipped(sink, day, i, "unparseable start time")
			continue
		}
		p := timeline.Program{
			Start:       start,
			Title:       title,
			Description: cellText(row.At(3)),
			Category:    gridCategory,
		}
		if d, ok := ParseDuration(row.At(2)); ok {
			p.End = start.Add(d)
		}
		out = append(out, p)
	}
	return out
}

// Formats implements Adapter.
func (g *Grid) Formats(rows []sheet.Row) []string {
	set := make(map[string]struct{})
	for i := gridHeaderRows; i < len(rows); i++ {
		c := rows[i].At(1)
		if c.Kind != sheet.KindText {
			continue
		}
		if f := strings.TrimSpace(c.Text); f != "" {
			set[f] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Filler implements Adapter.
func (g *Grid) Filler() timeline.FillerStyle {
	return timeline.FillerStyle{
		FullDayTitle: g.Titles.FullDay,
		PartialTitle: g.Titles.Partial,
		Category:     gridCategory,
	}
}

// ParseDuration reads a program length from a cell: "H:MM[:SS]" text, a
// whole number of minutes, or a clock value read as hours and minutes.
func ParseDuration(c sheet.Cell) (time.Duration, bool) {
	var d time.Duration
	switch c.Kind {
	case sheet.KindTime:
		h, m, s := c.Time.Clock()
		d = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	case sheet.KindNumber:
		switch {
		case c.Number <= 0 || math.IsInf(c.Number, 0):
			return 0, false
		case c.Number < 1:
			// A formatted time cell read raw: a fraction of a day.
			d = time.Duration(math.Round(c.Number*86400)) * time.Second
		default:
			d = time.Duration(math.Round(c.Number)) * time.Minute
		}
	case sheet.KindText:
		s := strings.TrimSpace(c.Text)
		if m := durationPattern.FindStringSubmatch(s); m != nil {
			h, _ := strconv.Atoi(m[1])
			mi, _ := strconv.Atoi(m[2])
			sec, _ := strconv.Atoi(m[3])
			d = time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second
		} else if n, err := strconv.Atoi(s); err == nil {
			d = time.Duration(n) * time.Minute
		} else {
			return 0, false
		}
	default:
		return 0, false
	}
	if d <= 0 {
		return 0, false
	}
	return d, true
}
