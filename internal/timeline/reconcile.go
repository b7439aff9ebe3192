// SPDX-License-Identifier: MIT

package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/ManuGH/epgconv/internal/diag"
)

const (
	// DefaultDuration is given to programs without an end that cannot be inferred.
	DefaultDuration = 30 * time.Minute
	// MinDuration is the floor for inferred durations.
	MinDuration = time.Minute
)

// FillerStyle is the source-specific look of synthesized entries.
// The IDs may be empty; sources without asset identifiers leave them unset.
type FillerStyle struct {
	FullDayTitle string
	PartialTitle string
	Category     string
	FullDayID    string
	PartialID    string
}

// Options control one reconciliation.
type Options struct {
	FillGaps bool
	Filler   FillerStyle
}

// Reconcile orders, repairs and (optionally) gap-fills the candidates of
// one day. The input slice is not modified. With FillGaps set the result
// tiles win exactly: it starts at win.Start, ends at win.End and has no
// gaps or overlaps. Anomalies are reported to sink; Reconcile never fails.
func Reconcile(cands []Program, win DayWindow, opts Options, sink diag.Sink) []Program {
	sink = diag.OrDiscard(sink)
	r := reconciler{win: win, opts: opts, sink: sink, day: win.Key()}

	progs := make([]Program, 0, len(cands))
	for _, p := range cands {
		if p.Start.IsZero() || p.Title == "" {
			continue
		}
		p.Start = p.Start.Round(time.Second)
		if !p.End.IsZero() {
			p.End = p.End.Round(time.Second)
		}
		progs = append(progs, p)
	}

	sort.SliceStable(progs, func(i, j int) bool { return progs[i].Start.Before(progs[j].Start) })
	progs = r.dedupe(progs)
	r.inferDurations(progs)
	progs = r.filterWindow(progs)
	r.resolveOverlaps(progs)
	progs = r.clip(progs)
	if opts.FillGaps {
		progs = r.fillGaps(progs)
	}
	return progs
}

type reconciler struct {
	win  DayWindow
	opts Options
	sink diag.Sink
	day  string
}

func (r reconciler) report(kind diag.Kind, p Program, seconds int64, detail string) {
	r.sink.Report(diag.Entry{
		Kind:    kind,
		Day:     r.day,
		Title:   p.Title,
		At:      p.Start,
		Seconds: seconds,
		Detail:  detail,
	})
}

// dedupe keeps the first of every (start, title) pair. progs must be sorted.
func (r reconciler) dedupe(progs []Program) []Program {
	type key struct {
		start int64
		title string
	}
	seen := make(map[key]struct{}, len(progs))
	out := progs[:0]
	for _, p := range progs {
		k := key{start: p.Start.UnixMilli(), title: p.Title}
		if _, dup := seen[k]; dup {
			r.report(diag.KindDuplicateRemoved, p, 0, "duplicate program removed")
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (r reconciler) inferDurations(progs []Program) {
	if !r.opts.FillGaps || len(progs) < 2 {
		for i := range progs {
			if !progs[i].End.After(progs[i].Start) {
				progs[i].End = progs[i].Start.Add(DefaultDuration)
				r.report(diag.KindDurationInferred, progs[i], int64(DefaultDuration/time.Second), "missing end, default duration applied")
			}
		}
		return
	}

	// Explicit ends of the last program are kept as they are; only inferred
	// durations get the floor.
	last := len(progs) - 1
	for i := range progs {
		p := &progs[i]
		var detail string
		switch {
		case i < last:
			next := progs[i+1].Start
			dayEnd := NewDayWindow(p.Start).End
			if next.Before(dayEnd) {
				p.End = next
				detail = "end inferred from next program"
			} else {
				p.End = dayEnd
				detail = "end inferred from day end"
			}
		case !p.End.After(p.Start):
			p.End = p.Start.Add(DefaultDuration)
			detail = "missing end, default duration applied"
		default:
			continue
		}
		if p.End.Sub(p.Start) < MinDuration {
			p.End = p.Start.Add(MinDuration)
		}
		r.report(diag.KindDurationInferred, *p, p.DurationSeconds(), detail)
	}
}

func (r reconciler) filterWindow(progs []Program) []Program {
	out := progs[:0]
	for _, p := range progs {
		if r.win.Intersects(p.Start, p.End) {
			out = append(out, p)
		}
	}
	return out
}

// resolveOverlaps is a single left-to-right pass truncating each program at
// its successor's start. Starts are sorted, so no adjacent pair overlaps afterwards.
func (r reconciler) resolveOverlaps(progs []Program) {
	for i := 0; i+1 < len(progs); i++ {
		next := progs[i+1].Start
		if progs[i].End.After(next) {
			cut := progs[i].End.Sub(next)
			progs[i].End = next
			r.report(diag.KindOverlapFixed, progs[i], int64(cut/time.Second),
				fmt.Sprintf("overlap with %q fixed", progs[i+1].Title))
		}
	}
}

func (r reconciler) clip(progs []Program) []Program {
	out := progs[:0]
	for _, p := range progs {
		if p.Start.Before(r.win.Start) {
			r.report(diag.KindStartClipped, p, int64(r.win.Start.Sub(p.Start)/time.Second), "start clipped to day start")
			p.Start = r.win.Start
			p.AdjustedStart = true
		}
		if p.End.After(r.win.End) {
			r.report(diag.KindEndClipped, p, int64(p.End.Sub(r.win.End)/time.Second), "end clipped to day end")
			p.End = r.win.End
			p.AdjustedEnd = true
		}
		if !p.End.After(p.Start) {
			r.report(diag.KindProgramDropped, p, 0, "program dropped, no duration left")
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r reconciler) fillGaps(progs []Program) []Program {
	if len(progs) == 0 {
		f := r.filler(r.win.Start, r.win.End, true)
		r.report(diag.KindGapFilled, f, f.DurationSeconds(), "empty day filled")
		return []Program{f}
	}

	out := make([]Program, 0, len(progs)+2)
	cursor := r.win.Start
	for _, p := range progs {
		if p.Start.After(cursor) {
			f := r.filler(cursor, p.Start, false)
			r.report(diag.KindGapFilled, f, f.DurationSeconds(), "gap filled")
			out = append(out, f)
		}
		out = append(out, p)
		cursor = p.End
	}
	if cursor.Before(r.win.End) {
		f := r.filler(cursor, r.win.End, false)
		r.report(diag.KindGapFilled, f, f.DurationSeconds(), "trailing gap filled")
		out = append(out, f)
	}
	return out
}

func (r reconciler) filler(start, end time.Time, fullDay bool) Program {
	style := r.opts.Filler
	p := Program{
		Start:    start,
		End:      end,
		Title:    style.PartialTitle,
		Category: style.Category,
		IsFiller: true,
	}
	if fullDay {
		p.Title = style.FullDayTitle
		p.ProgramID = style.FullDayID
	} else {
		p.ProgramID = style.PartialID
	}
	if p.Title == "" {
		p.Title = "Programmazione"
	}
	p.Description = p.Title
	return p
}
