// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/temporal"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// writeGridWorkbook saves a one-day grid workbook dated today.
func writeGridWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sh = "Lunedi"
	require.NoError(t, f.SetSheetName("Sheet1", sh))
	cells := map[string]any{
		"A1": "Palinsesto", "B1": temporal.ToSerial(today()),
		"A3": "Ora", "B3": "Titolo", "C3": "Durata",
		"A4": "06:00", "B4": "NEWS", "C4": 30,
		"A5": "06:30", "B5": "Runway", "C5": 90,
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sh, cell, v))
	}
	path := filepath.Join(t.TempDir(), "moda.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "epgconv dev (commit: none")
}

func TestConvertVerifyShift(t *testing.T) {
	book := writeGridWorkbook(t)
	outDir := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "epgconv.prom")
	day := temporal.DayKey(today())

	out, _, err := run(t, "convert", "--channel", "tvmoda", "--out", outDir, "--metrics-file", metricsFile, book)
	require.NoError(t, err)
	assert.Contains(t, out, "channel tvmoda, grid workbook moda.xlsx")
	assert.Contains(t, out, day)
	assert.Contains(t, out, "120/1440")
	assert.Contains(t, out, "formats without icon: NEWS, Runway")

	docPath := filepath.Join(outDir, epg.FileName(day))
	doc, err := epg.ReadFile(docPath)
	require.NoError(t, err)
	assert.Len(t, doc.Programmes, 4)
	assert.FileExists(t, metricsFile)

	out, _, err = run(t, "verify", "--strict", docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "programmes: 4")
	assert.Contains(t, out, "no problems found")

	shifted := filepath.Join(t.TempDir(), "shifted.xml")
	_, stderr, err := run(t, "shift", "--to", "2030-01-01", "-o", shifted, docPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "shifted by")
	moved, err := epg.ReadFile(shifted)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01", moved.Date)
}

func TestConvertDryRunJSON(t *testing.T) {
	book := writeGridWorkbook(t)
	outDir := filepath.Join(t.TempDir(), "never")

	out, _, err := run(t, "convert", "--channel", "tvmoda", "--out", outDir, "--dry-run", "--no-fill", "--json", book)
	require.NoError(t, err)

	var sum struct {
		DryRun bool `json:"dry_run"`
		Days   []struct {
			Programs int `json:"programs"`
			Fillers  int `json:"fillers"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.True(t, sum.DryRun)
	require.Len(t, sum.Days, 1)
	assert.Equal(t, 2, sum.Days[0].Programs)
	assert.Equal(t, 0, sum.Days[0].Fillers)
	assert.NoDirExists(t, outDir)
}

func TestConvertRejectsBadInput(t *testing.T) {
	book := writeGridWorkbook(t)

	_, _, err := run(t, "convert", "--offset", "abc", book)
	assert.Error(t, err)

	_, _, err = run(t, "convert", "--offset", "15", book)
	assert.Error(t, err, "offsets beyond 14 hours fail validation")

	_, _, err = run(t, "convert", "--channel", "nope", book)
	assert.ErrorIs(t, err, config.ErrUnknownChannel)

	_, _, err = run(t, "convert", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	out, _, err := run(t, "detect", "--channel", "tvmoda", writeGridWorkbook(t))
	require.NoError(t, err)
	assert.Contains(t, out, "moda.xlsx: 1 days (grid layout, channel tvmoda)")
	assert.Contains(t, out, temporal.DayKey(today()))
	assert.Contains(t, out, "formats: 2 (2 without icon)")
}

func TestFormats(t *testing.T) {
	book := writeGridWorkbook(t)

	out, _, err := run(t, "formats", "scan", "--channel", "tvmoda", book)
	require.NoError(t, err)
	assert.Contains(t, out, "found 0 of 2 formats")
	assert.Contains(t, out, "missing  Runway")

	mapping := filepath.Join(t.TempDir(), "icons.json")
	_, stderr, err := run(t, "formats", "add-missing", "--channel", "tvmoda", "-o", mapping, book)
	require.NoError(t, err)
	assert.Contains(t, stderr, "added 2 formats")

	data, err := os.ReadFile(mapping)
	require.NoError(t, err)
	var m formats.Mapping
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "ClassTVModa", m.Channel)
	assert.Equal(t, map[string]string{"NEWS": formats.DefaultIcon, "Runway": formats.DefaultIcon}, m.FormatIcons)

	out, _, err = run(t, "formats", "import", "--channel", "tvmoda", mapping)
	require.NoError(t, err)
	assert.Contains(t, out, "tvmoda:")
	assert.Contains(t, out, "Runway: default.jpg")

	out, _, err = run(t, "formats", "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"channel": "ClassCNBC"`)
}

func TestConfigCommands(t *testing.T) {
	out, _, err := run(t, "config", "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "channel: classcnbc")

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("tzOffset: 1\n"), 0o600))
	out, _, err = run(t, "config", "validate", "-f", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.yaml is valid")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tzOffset: 99\n"), 0o600))
	_, _, err = run(t, "config", "validate", "-f", bad)
	assert.Error(t, err)

	_, _, err = run(t, "config", "validate")
	assert.Error(t, err)

	_, _, err = run(t, "--config", bad, "config", "dump")
	assert.Error(t, err, "commands needing the configuration refuse an invalid one")
}
