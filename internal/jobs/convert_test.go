// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/source"
	"github.com/ManuGH/epgconv/internal/telemetry"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func programRow(h, m int, title string, minutes int, desc string) sheet.Row {
	return sheet.Row{sheet.Clock(h, m, 0), sheet.Text(title), sheet.Number(float64(minutes)), sheet.Text(desc)}
}

// gridBook has two dated day sheets, the second without programs, and one
// sheet without a date.
func gridBook() *sheet.Workbook {
	return &sheet.Workbook{
		Name: "moda_giugno.xlsx",
		Sheets: []sheet.Sheet{
			{Name: "Lunedi", Rows: []sheet.Row{
				{sheet.Text("Palinsesto"), sheet.Time(day(9))},
				{},
				{sheet.Text("Ora"), sheet.Text("Titolo"), sheet.Text("Durata")},
				programRow(6, 0, "NEWS", 30, "Morning news"),
				programRow(6, 30, "Runway", 90, ""),
			}},
			{Name: "Martedi", Rows: []sheet.Row{
				{sheet.Time(day(10))},
			}},
			{Name: "Note", Rows: []sheet.Row{
				{sheet.Text("nothing to see")},
			}},
		},
	}
}

type fakeMetrics struct {
	mu          sync.Mutex
	runs        []error
	days        map[string]int
	writeErrors int
}

func (f *fakeMetrics) RecordRun(_ string, err error, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, err)
}

func (f *fakeMetrics) RecordDay(_ string, outcome string, _, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.days == nil {
		f.days = make(map[string]int)
	}
	f.days[outcome]++
}

func (f *fakeMetrics) IncXMLTVWriteError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErrors++
}

func testDeps(t *testing.T) (Deps, *diag.Journal, *fakeMetrics) {
	t.Helper()
	adapter, err := source.New(source.KindGrid, source.DefaultFillerTitles)
	require.NoError(t, err)
	table := formats.NewTable("ClassTVModa", "Class TV Moda", "https://img.example.net/moda/", "", map[string]string{"News": "news.jpg"})
	journal := &diag.Journal{}
	m := &fakeMetrics{}
	return Deps{
		Channel:    "tvmoda",
		Adapter:    adapter,
		Serializer: &epg.Serializer{Icons: table},
		Params:     epg.Params{ChannelID: "ClassTVModa", ChannelName: "Class TV Moda", OffsetHours: 2, FillGaps: true},
		Icons:      table,
		Sink:       journal,
		Metrics:    m,
		Clock:      func() time.Time { return testNow },
	}, journal, m
}

func TestConvertWritesOneDocumentPerDay(t *testing.T) {
	deps, journal, m := testDeps(t)
	out := t.TempDir()

	sum, err := Convert(context.Background(), gridBook(), deps, Options{OutputDir: out, Parallelism: 4})
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, source.KindGrid, sum.Source)
	assert.Equal(t, "moda_giugno.xlsx", sum.Workbook)
	require.Len(t, sum.Days, 2)
	assert.Equal(t, "2025-06-09", sum.Days[0].Day)
	assert.Equal(t, "2025-06-10", sum.Days[1].Day)

	first := sum.Days[0]
	assert.Equal(t, 4, first.Programs)
	assert.Equal(t, 2, first.Fillers)
	assert.Equal(t, int64(86400), first.TotalSeconds)
	assert.Equal(t, int64(7200), first.ScheduledSeconds)
	assert.Equal(t, 120, first.CoverageMinutes)
	assert.Empty(t, first.Warning)
	assert.Equal(t, filepath.Join(out, "2025-06-09.xml"), first.Path)

	doc, err := epg.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09", doc.Date)
	require.Len(t, doc.Programmes, 4)
	assert.Equal(t, "20250609T040000+0000", doc.Programmes[1].Start)
	assert.Equal(t, "News", doc.Programmes[1].Title.Value)
	assert.Equal(t, "Morning news", doc.Programmes[1].Desc.Value)
	assert.Equal(t, "https://img.example.net/moda/news.jpg", doc.Programmes[1].Icon.Src)
	assert.Equal(t, "https://img.example.net/moda/default.jpg", doc.Programmes[2].Icon.Src)
	var total int64
	for _, p := range doc.Programmes {
		total += p.Length.Value
	}
	assert.Equal(t, int64(86400), total)

	second := sum.Days[1]
	assert.Equal(t, 1, second.Programs)
	assert.Equal(t, 1, second.Fillers)
	assert.Equal(t, "no programs found for 2025-06-10", second.Warning)
	assert.Equal(t, 1, second.Anomalies[diag.KindDayEmpty])
	assert.FileExists(t, filepath.Join(out, "2025-06-10.xml"))

	assert.Equal(t, []string{"no programs found for 2025-06-10"}, sum.Warnings)
	assert.Equal(t, []string{"Runway"}, sum.MissingFormats)
	assert.Equal(t, 1, sum.Anomalies[diag.KindDateUndetected])
	assert.Equal(t, 1, sum.Anomalies[diag.KindMissingIcon])
	assert.Equal(t, 5, sum.Programs)
	assert.Equal(t, 3, sum.Fillers)

	assert.Equal(t, 1, journal.Count(diag.KindDayEmpty))
	assert.Equal(t, 1, journal.Count(diag.KindMissingIcon))
	assert.Equal(t, sum.Anomalies, journal.Counts(), "the summary counts every reported anomaly")

	assert.Equal(t, []error{nil}, m.runs)
	assert.Equal(t, map[string]int{"written": 1, "empty": 1}, m.days)
}

func TestConvertDryRun(t *testing.T) {
	deps, _, m := testDeps(t)
	out := filepath.Join(t.TempDir(), "xmltv")

	sum, err := Convert(context.Background(), gridBook(), deps, Options{OutputDir: out, DryRun: true})
	require.NoError(t, err)
	require.Len(t, sum.Days, 2)
	assert.True(t, sum.DryRun)
	for _, d := range sum.Days {
		assert.Empty(t, d.Path)
		assert.Contains(t, string(d.Document), `<tv date="`+d.Day+`">`)
	}
	assert.NoDirExists(t, out)
	assert.Equal(t, 1, m.days["dry_run"])
}

func TestConvertSelectsDays(t *testing.T) {
	deps, _, _ := testDeps(t)

	sum, err := Convert(context.Background(), gridBook(), deps, Options{DryRun: true, Days: []string{"2025-06-10"}})
	require.NoError(t, err)
	require.Len(t, sum.Days, 1)
	assert.Equal(t, "2025-06-10", sum.Days[0].Day)

	_, err = Convert(context.Background(), gridBook(), deps, Options{DryRun: true, Days: []string{"2030-01-01"}})
	assert.ErrorIs(t, err, ErrNoDays)
}

func TestConvertNoDays(t *testing.T) {
	deps, _, m := testDeps(t)
	book := &sheet.Workbook{Name: "empty.xlsx", Sheets: []sheet.Sheet{{Name: "Note"}}}

	sum, err := Convert(context.Background(), book, deps, Options{OutputDir: t.TempDir()})
	require.ErrorIs(t, err, ErrNoDays)
	assert.Contains(t, err.Error(), "empty.xlsx")
	require.NotNil(t, sum)
	assert.Empty(t, sum.Days)
	require.Len(t, m.runs, 1)
	assert.Error(t, m.runs[0])

	_, err = Convert(context.Background(), nil, deps, Options{})
	assert.Error(t, err)
}

type failingWriter struct {
	okWrites int
	calls    int
}

func (w *failingWriter) WriteAtomic(ctx context.Context, path string, data []byte) error {
	w.calls++
	if w.calls > w.okWrites {
		return errors.New("disk full")
	}
	return AtomicWriter{}.WriteAtomic(ctx, path, data)
}

func TestConvertRemovesPartialOutput(t *testing.T) {
	deps, _, m := testDeps(t)
	deps.Writer = &failingWriter{okWrites: 1}
	out := t.TempDir()

	_, err := Convert(context.Background(), gridBook(), deps, Options{OutputDir: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoFileExists(t, filepath.Join(out, "2025-06-09.xml"))
	assert.NoFileExists(t, filepath.Join(out, "2025-06-10.xml"))
	assert.Equal(t, 1, m.writeErrors)
}

func TestConvertCanceled(t *testing.T) {
	deps, _, _ := testDeps(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Convert(ctx, gridBook(), deps, Options{DryRun: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertTraces(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	_, err := telemetry.NewProviderWithExporter(context.Background(),
		telemetry.Config{ServiceName: "epgconv", SamplingRate: 1}, sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = telemetry.NewProvider(context.Background(), telemetry.Config{}) })

	deps, _, _ := testDeps(t)
	_, err = Convert(context.Background(), gridBook(), deps, Options{DryRun: true, Parallelism: 2})
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range exporter.GetSpans() {
		names[s.Name]++
	}
	assert.Equal(t, map[string]int{"convert.run": 1, "convert.day": 2}, names)
}

func TestAtomicWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "2025-06-09.xml")
	require.NoError(t, AtomicWriter{}.WriteAtomic(context.Background(), path, []byte("one")))
	require.NoError(t, AtomicWriter{}.WriteAtomic(context.Background(), path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestClampParallelism(t *testing.T) {
	assert.Equal(t, 1, clampParallelism(0, 5))
	assert.Equal(t, 3, clampParallelism(8, 3))
	assert.Equal(t, maxParallelism, clampParallelism(1000, 100))
}
