// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/epgconv/internal/source"
	"github.com/ManuGH/epgconv/internal/validate"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, []string{"classcnbc", "tvmoda"}, cfg.ChannelKeys())
	assert.Equal(t, source.KindRowStream, cfg.Channels["classcnbc"].Kind())
	assert.Equal(t, source.KindGrid, cfg.Channels["tvmoda"].Kind())
	assert.Equal(t, "14", cfg.Mappings.Rating["VM14"])
	assert.Equal(t, source.DefaultFillerTitles, cfg.FillerTitles())

	cfg.Mappings.Category["Sport"] = "Sports"
	assert.NotContains(t, Defaults().Mappings.Category, "Sport", "defaults share no maps")
}

func TestLookup(t *testing.T) {
	cfg := Defaults()
	ch, err := cfg.Lookup("tvmoda")
	require.NoError(t, err)
	assert.Equal(t, "ClassTVModa", ch.ID)

	_, err = cfg.Lookup("rai1")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestChannelTable(t *testing.T) {
	ch := Channel{
		ID: "ClassCNBC", Name: "Class CNBC", IconBaseURL: "https://img.example.net/",
		Icons: map[string]string{"Linea Mercati": "lm.jpg"},
	}
	table := ch.Table()
	assert.Equal(t, "https://img.example.net/lm.jpg", table.Resolve("LINEA MERCATI"))
	assert.Equal(t, "https://img.example.net/default.jpg", table.Resolve("other"))
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := NewLoader("", "1.2.3").Load()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.InDelta(t, 2.0, cfg.OffsetHours, 1e-9)
}

func TestLoadFileMerges(t *testing.T) {
	path := writeConfig(t, "epgconv.yaml", `
tzOffset: -3.5
fillGaps: false
outputDir: /srv/xmltv
mappings:
  category:
    Sport: Sports
channels:
  moda2:
    id: Moda2
    name: Moda Due
    source: grid
    iconBaseUrl: https://img.example.net/moda2/
    icons:
      Fashion Week: fw.jpg
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.InDelta(t, -3.5, cfg.OffsetHours, 1e-9)
	assert.False(t, cfg.FillGaps)
	assert.Equal(t, "/srv/xmltv", cfg.OutputDir)
	assert.Equal(t, "Sports", cfg.Mappings.Category["Sport"])
	assert.Equal(t, "News", cfg.Mappings.Category["Informazione"], "maps merge with defaults")
	assert.Equal(t, []string{"classcnbc", "moda2", "tvmoda"}, cfg.ChannelKeys())
	assert.Equal(t, "fw.jpg", cfg.Channels["moda2"].Icons["Fashion Week"])
	assert.Equal(t, 4, cfg.Parallelism)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "epgconv.yml", "tzOffset: 1\nparallelism: 2\nfillGaps: false\n")
	t.Setenv(EnvOffset, "+05:30")
	t.Setenv(EnvFillGaps, "yes")
	t.Setenv(EnvParallelism, "many")
	t.Setenv(EnvChannel, "tvmoda")
	t.Setenv(EnvOutputDir, "")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.InDelta(t, 5.5, cfg.OffsetHours, 1e-9)
	assert.True(t, cfg.FillGaps)
	assert.Equal(t, 2, cfg.Parallelism, "invalid env values keep the file value")
	assert.Equal(t, "tvmoda", cfg.Channel)
	assert.Equal(t, "xmltv", cfg.OutputDir, "empty env values are ignored")
	assert.Contains(t, l.ConsumedEnvKeys, EnvOffset)
	assert.Contains(t, l.ConsumedEnvKeys, EnvListenAddr)
}

func TestLoadStrict(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown field", "c.yaml", "tzOfset: 2\n", "strict config parse error"},
		{"multiple documents", "c.yaml", "tzOffset: 2\n---\ntzOffset: 3\n", "multiple documents"},
		{"wrong extension", "c.json", "{}", "unsupported config format"},
		{"invalid value", "c.yaml", "tzOffset: 20\n", "tzOffset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.file, tt.content), "").Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := NewLoader(writeConfig(t, "empty.yaml", ""), "").Load()
	assert.NoError(t, err, "an empty file keeps the defaults")

	_, err = NewLoader(filepath.Join(t.TempDir(), "missing.yaml"), "").Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.OffsetHours = 15
	cfg.Parallelism = 0
	cfg.ListenAddr = "nope"
	cfg.Channel = "missing"
	cfg.Channels["bad"] = Channel{Source: "csv", IconBaseURL: "ftp://img.example.net/"}

	err := Validate(cfg)
	require.Error(t, err)

	var verr validate.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Errors()))
	for _, e := range verr.Errors() {
		fields = append(fields, e.Field)
	}
	want := []string{
		"tzOffset", "listenAddr", "parallelism",
		"channels.bad.id", "channels.bad.name", "channels.bad.source", "channels.bad.iconBaseUrl",
		"channel",
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("validation fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateDirectories(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.xml")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	cfg := Defaults()
	cfg.OutputDir = file
	cfg.InboxDir = " "
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputDir: path is not a directory")
	assert.Contains(t, err.Error(), "inboxDir: directory path cannot be empty")

	cfg = Defaults()
	cfg.OutputDir = filepath.Join(t.TempDir(), "not", "yet")
	assert.NoError(t, Validate(cfg), "missing directories are created on first write")
}

func TestValidateTelemetry(t *testing.T) {
	cfg := Defaults()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Exporter = "zipkin"
	cfg.Telemetry.SampleRatio = 2
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry.exporter")
	assert.Contains(t, err.Error(), "telemetry.endpoint")
	assert.Contains(t, err.Error(), "telemetry.sampleRatio")
}

func TestDumpRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Channels["tvmoda"] = Channel{
		ID: "ClassTVModa", Name: "Class TV Moda", Source: "grid",
		IconBaseURL: "https://img.example.net/", Icons: map[string]string{"Runway": "runway.jpg"},
	}

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, cfg))
	assert.NotContains(t, buf.String(), "version")

	var back Config
	require.NoError(t, decodeStrict(buf.Bytes(), &back))
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("config changed through dump (-want +got):\n%s", diff)
	}
}

func TestSerializerUsesMappings(t *testing.T) {
	s := Defaults().Serializer(nil)
	assert.Equal(t, "Business", s.Category("Economia"))
	assert.Equal(t, "18", s.Rating("VM18"))
	assert.Equal(t, "it", s.Lang)
}
