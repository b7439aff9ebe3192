// SPDX-License-Identifier: MIT

package timeline

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/epgconv/internal/diag"
)

var testDay = NewDayWindow(time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC))

var testFiller = FillerStyle{
	FullDayTitle: "Programmazione",
	PartialTitle: "Programmazione notturna",
	Category:     "Informazione",
	FullDayID:    "FILLER_DAY",
	PartialID:    "FILLER_NIGHT",
}

func at(h, m int) time.Time {
	return testDay.Start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func prog(title string, start, end time.Time) Program {
	return Program{Title: title, Start: start, End: end}
}

func assertTiled(t *testing.T, progs []Program, win DayWindow) {
	t.Helper()
	require.NotEmpty(t, progs)
	assert.Equal(t, int64(86400), TotalSeconds(progs))
	assert.Equal(t, win.Start, progs[0].Start)
	assert.Equal(t, win.End, progs[len(progs)-1].End)
	for i := 0; i+1 < len(progs); i++ {
		assert.True(t, progs[i].Start.Before(progs[i+1].Start), "not strictly ascending at %d", i)
		assert.False(t, progs[i].End.After(progs[i+1].Start), "overlap at %d", i)
		assert.Equal(t, progs[i].End, progs[i+1].Start, "gap at %d", i)
	}
	for _, p := range progs {
		assert.Greater(t, p.DurationSeconds(), int64(0))
	}
}

func TestReconcileDuplicates(t *testing.T) {
	var j diag.Journal
	in := []Program{
		prog("NEWS", at(9, 0), time.Time{}),
		prog("NEWS", at(9, 0), time.Time{}),
	}
	out := Reconcile(in, testDay, Options{}, &j)

	require.Len(t, out, 1)
	assert.Equal(t, "NEWS", out[0].Title)
	assert.Equal(t, at(9, 30), out[0].End)
	assert.Equal(t, 1, j.Count(diag.KindDuplicateRemoved))
	assert.Len(t, in, 2, "input must not be modified")
}

func TestReconcileDuplicatesWithGapFill(t *testing.T) {
	var j diag.Journal
	in := []Program{
		prog("NEWS", at(9, 0), time.Time{}),
		prog("NEWS", at(9, 0), time.Time{}),
	}
	out := Reconcile(in, testDay, Options{FillGaps: true, Filler: testFiller}, &j)

	var news int
	for _, p := range out {
		if p.Title == "NEWS" {
			news++
		}
	}
	assert.Equal(t, 1, news)
	assertTiled(t, out, testDay)
}

func TestReconcileOverlap(t *testing.T) {
	var j diag.Journal
	in := []Program{
		prog("B", at(9, 0), at(10, 0)),
		prog("A", at(8, 0), at(9, 30)),
	}
	out := Reconcile(in, testDay, Options{}, &j)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, at(9, 0), out[0].End)
	assert.Equal(t, int64(3600), out[0].DurationSeconds())
	assert.Equal(t, 1, j.Count(diag.KindOverlapFixed))
}

func TestReconcileEmptyDay(t *testing.T) {
	out := Reconcile(nil, testDay, Options{FillGaps: true, Filler: testFiller}, nil)

	require.Len(t, out, 1)
	f := out[0]
	assert.True(t, f.IsFiller)
	assert.Equal(t, "Programmazione", f.Title)
	assert.Equal(t, "FILLER_DAY", f.ProgramID)
	assert.Equal(t, testDay.Start, f.Start)
	assert.Equal(t, "23:59:59", testDay.LastSecond().Format("15:04:05"))
	assert.Equal(t, int64(86400), f.DurationSeconds())
}

func TestReconcileEmptyDayWithoutGapFill(t *testing.T) {
	assert.Empty(t, Reconcile(nil, testDay, Options{}, nil))
}

func TestReconcileInfersFromNextStart(t *testing.T) {
	in := []Program{
		prog("Morning", at(6, 0), time.Time{}),
		prog("Noon", at(12, 0), time.Time{}),
		prog("Evening", at(20, 0), time.Time{}),
	}
	var j diag.Journal
	out := Reconcile(in, testDay, Options{FillGaps: true, Filler: testFiller}, &j)

	want := []struct {
		title      string
		start, end time.Time
		filler     bool
	}{
		{"Programmazione notturna", at(0, 0), at(6, 0), true},
		{"Morning", at(6, 0), at(12, 0), false},
		{"Noon", at(12, 0), at(20, 0), false},
		{"Evening", at(20, 0), at(20, 30), false},
		{"Programmazione notturna", at(20, 30), testDay.End, true},
	}
	require.Len(t, out, len(want))
	for i, w := range want {
		assert.Equal(t, w.title, out[i].Title, "entry %d", i)
		assert.Equal(t, w.start, out[i].Start, "entry %d", i)
		assert.Equal(t, w.end, out[i].End, "entry %d", i)
		assert.Equal(t, w.filler, out[i].IsFiller, "entry %d", i)
	}
	assert.Equal(t, "FILLER_NIGHT", out[0].ProgramID)
	assert.Equal(t, 3, j.Count(diag.KindDurationInferred), "ends taken from the next start are reported too")
	assertTiled(t, out, testDay)
}

func TestReconcileMinimumDuration(t *testing.T) {
	in := []Program{
		prog("Flash", at(10, 0), time.Time{}),
		prog("Next", at(10, 0).Add(20*time.Second), time.Time{}),
		prog("Later", at(11, 0), time.Time{}),
	}
	out := Reconcile(in, testDay, Options{FillGaps: true, Filler: testFiller}, nil)

	// The floor extends Flash to a minute, then the overlap pass cuts it back.
	var flash Program
	for _, p := range out {
		if p.Title == "Flash" {
			flash = p
		}
	}
	assert.Equal(t, int64(20), flash.DurationSeconds())
	assertTiled(t, out, testDay)
}

func TestReconcileCrossMidnight(t *testing.T) {
	var j diag.Journal
	prev := at(0, 0).Add(-30 * time.Minute)
	in := []Program{
		prog("Late show", prev, at(1, 0)),
		prog("Night movie", at(23, 0), at(25, 0)),
	}
	out := Reconcile(in, testDay, Options{}, &j)

	require.Len(t, out, 2)
	assert.Equal(t, testDay.Start, out[0].Start)
	assert.True(t, out[0].AdjustedStart)
	assert.Equal(t, testDay.End, out[1].End)
	assert.True(t, out[1].AdjustedEnd)
	assert.Equal(t, 1, j.Count(diag.KindStartClipped))
	assert.Equal(t, 1, j.Count(diag.KindEndClipped))
}

func TestReconcileNextDayStartEndsAtMidnight(t *testing.T) {
	in := []Program{
		prog("Late", at(23, 0), time.Time{}),
		prog("Tomorrow", at(24, 30), time.Time{}),
	}
	out := Reconcile(in, testDay, Options{FillGaps: true, Filler: testFiller}, nil)

	require.NotEmpty(t, out)
	last := out[len(out)-1]
	assert.Equal(t, "Late", last.Title)
	assert.Equal(t, testDay.End, last.End)
	assertTiled(t, out, testDay)
}

func TestReconcileWindowContainment(t *testing.T) {
	in := []Program{
		prog("Marathon", at(-2, 0), at(26, 0)),
		prog("Yesterday", at(-3, 0), at(-1, 0)),
	}
	out := Reconcile(in, testDay, Options{}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "Marathon", out[0].Title)
	assert.Equal(t, int64(86400), out[0].DurationSeconds())
}

func TestReconcileDropsDegenerate(t *testing.T) {
	var j diag.Journal
	in := []Program{
		prog("A", at(10, 0), at(11, 0)),
		prog("B", at(10, 0), at(10, 30)),
	}
	out := Reconcile(in, testDay, Options{}, &j)

	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].Title)
	assert.Equal(t, 1, j.Count(diag.KindProgramDropped))
}

func TestReconcileSkipsInvalidCandidates(t *testing.T) {
	in := []Program{
		{Title: "No start"},
		prog("", at(8, 0), at(9, 0)),
		prog("Valid", at(8, 0), at(9, 0)),
	}
	out := Reconcile(in, testDay, Options{}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "Valid", out[0].Title)
}

func TestReconcileIdempotent(t *testing.T) {
	in := []Program{
		prog("NEWS", at(9, 0), time.Time{}),
		prog("NEWS", at(9, 0), time.Time{}),
		prog("Talk", at(7, 15), at(8, 0)),
		prog("Movie", at(21, 0), at(23, 40)),
		prog("Late", at(23, 50), at(25, 10)),
		prog("Flash", at(12, 0).Add(10*time.Second), time.Time{}),
	}
	opts := Options{FillGaps: true, Filler: testFiller}
	first := Reconcile(in, testDay, opts, nil)
	assertTiled(t, first, testDay)

	second := Reconcile(first, testDay, opts, nil)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass changed the timeline (-first +second):\n%s", diff)
	}
}

func TestReconcileKeepsShortTrailingEntry(t *testing.T) {
	in := []Program{
		prog("Movie", at(22, 0), at(23, 59).Add(51*time.Second)),
	}
	opts := Options{FillGaps: true, Filler: testFiller}
	first := Reconcile(in, testDay, opts, nil)
	assertTiled(t, first, testDay)

	tail := first[len(first)-1]
	require.True(t, tail.IsFiller)
	assert.Equal(t, int64(9), tail.DurationSeconds())

	var j diag.Journal
	second := Reconcile(first, testDay, opts, &j)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass changed the timeline (-first +second):\n%s", diff)
	}
	assert.Zero(t, j.Count(diag.KindEndClipped))
}

func TestReconcileRoundsToSeconds(t *testing.T) {
	start := at(6, 0).Add(-time.Millisecond)
	out := Reconcile([]Program{prog("Serial", start, time.Time{})}, testDay, Options{FillGaps: true, Filler: testFiller}, nil)
	assertTiled(t, out, testDay)
	assert.Equal(t, at(6, 0), out[1].Start)
}

func TestDayWindow(t *testing.T) {
	w := NewDayWindow(time.Date(2025, time.June, 9, 17, 45, 0, 0, time.UTC))
	assert.Equal(t, "2025-06-09", w.Key())
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.True(t, w.Intersects(w.Start.Add(-time.Hour), w.Start.Add(time.Second)))
	assert.False(t, w.Intersects(w.End, w.End.Add(time.Hour)))
	assert.Equal(t, 24*time.Hour, w.End.Sub(w.Start))
}

func TestSummaries(t *testing.T) {
	progs := []Program{
		{Title: "A", Start: at(0, 0), End: at(1, 0)},
		{Title: "F", Start: at(1, 0), End: at(2, 0), IsFiller: true},
	}
	assert.Equal(t, int64(7200), TotalSeconds(progs))
	assert.Equal(t, int64(3600), ScheduledSeconds(progs))
	assert.Equal(t, 1, Fillers(progs))
	assert.Equal(t, time.Duration(0), Program{Start: at(1, 0)}.Duration())
}
