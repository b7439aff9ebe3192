// SPDX-License-Identifier: MIT

// Package sheet models the raw tabular data a schedule workbook yields.
//
// A cell is a tagged union: it is either absent, text, a number or a native
// temporal value. Consumers decode each tag explicitly instead of inspecting
// runtime types.
package sheet

import (
	"strconv"
	"strings"
	"time"
)

// Kind tags the runtime shape of a Cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value. Only the field matching Kind is meaningful.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

// Empty returns an absent cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell. Blank text collapses to an absent cell.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: KindText, Text: s}
}

// Number returns a numeric cell.
func Number(n float64) Cell { return Cell{Kind: KindNumber, Number: n} }

// Time returns a native temporal cell.
func Time(t time.Time) Cell { return Cell{Kind: KindTime, Time: t} }

// Clock is a convenience for a temporal cell holding only a time of day.
func Clock(hour, minute, second int) Cell {
	return Time(time.Date(1899, time.December, 30, hour, minute, second, 0, time.UTC))
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// String renders the cell as display text. Temporal cells use ISO form.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindTime:
		return c.Time.Format("2006-01-02T15:04:05")
	default:
		return ""
	}
}

// Row is an ordered sequence of cells. Trailing cells may be missing.
type Row []Cell

// At returns the cell at index i, or an empty cell when the row is shorter.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// NonEmpty counts the cells that carry a value.
func (r Row) NonEmpty() int {
	n := 0
	for _, c := range r {
		if !c.IsEmpty() {
			n++
		}
	}
	return n
}

// Sheet is a named grid of rows.
type Sheet struct {
	Name string
	Rows []Row
}

// Workbook is the ordered set of sheets read from one source file.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

// First returns the first sheet, or nil when the workbook is empty.
func (w *Workbook) First() *Sheet {
	if w == nil || len(w.Sheets) == 0 {
		return nil
	}
	return &w.Sheets[0]
}

// Sheet looks a sheet up by name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	if w == nil {
		return nil, false
	}
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}
