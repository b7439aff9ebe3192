// SPDX-License-Identifier: MIT

package formats

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://img.example.net/classcnbc/"

func newTestTable() *Table {
	return NewTable("classcnbc", "Class CNBC", base, "", map[string]string{
		"Linea Mercati": "linea_mercati.jpg",
		"Caffè Affari":  "caffe_affari.jpg",
		"TG Class CNBC": "tg.jpg",
		"Empty mapping": "",
	})
}

func TestResolve(t *testing.T) {
	tbl := newTestTable()

	assert.Equal(t, base+"linea_mercati.jpg", tbl.Resolve("LINEA MERCATI"))
	assert.Equal(t, base+"linea_mercati.jpg", tbl.Resolve("  linea mercati "))
	assert.Equal(t, base+"caffe_affari.jpg", tbl.Resolve("CAFFÈ AFFARI"))
	// decomposed e + combining grave
	assert.Equal(t, base+"caffe_affari.jpg", tbl.Resolve("Caffe\u0300 Affari"))
	assert.Equal(t, base+DefaultIcon, tbl.Resolve("Unknown show"))
	assert.Equal(t, base+DefaultIcon, tbl.Resolve(""))
	assert.Equal(t, base+DefaultIcon, tbl.Resolve("empty mapping"))
}

func TestSetReplacesCaseVariant(t *testing.T) {
	tbl := newTestTable()
	tbl.Set("LINEA MERCATI", "new.jpg")

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, base+"new.jpg", tbl.Resolve("Linea Mercati"))
	_, old := tbl.Icons()["Linea Mercati"]
	assert.False(t, old)
}

func TestScanAndAddMissing(t *testing.T) {
	tbl := newTestTable()
	detected := []string{"Linea Mercati", "Nuovo Format", "tg class cnbc", "Altro"}

	res := tbl.Scan(detected)
	assert.Equal(t, []string{"Linea Mercati", "tg class cnbc"}, res.Found)
	assert.Equal(t, []string{"Nuovo Format", "Altro"}, res.Missing)

	added := tbl.AddMissing(detected)
	assert.Equal(t, []string{"Nuovo Format", "Altro"}, added)
	icon, ok := tbl.Lookup("NUOVO FORMAT")
	require.True(t, ok)
	assert.Equal(t, DefaultIcon, icon)

	assert.Empty(t, tbl.AddMissing(detected))
	assert.Empty(t, tbl.Scan(detected).Missing)
}

func TestSuggest(t *testing.T) {
	tbl := newTestTable()

	got, ok := tbl.Suggest("Linea Mercato", SuggestDistance)
	require.True(t, ok)
	assert.Equal(t, "Linea Mercati", got)

	_, ok = tbl.Suggest("Completely different", SuggestDistance)
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"tg class cnb": "TG Class CNBC"},
		tbl.Suggestions([]string{"tg class cnb", "zzz"}))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("caffè", "caffe"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

func TestExportImport(t *testing.T) {
	tbl := newTestTable()
	var buf bytes.Buffer
	now := time.Date(2025, time.June, 9, 10, 0, 0, 0, time.UTC)
	require.NoError(t, tbl.Export(&buf, now, "1.2.0"))

	var m Mapping
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "classcnbc", m.Channel)
	assert.Equal(t, "Class CNBC", m.ChannelName)
	assert.Equal(t, base+DefaultIcon, m.DefaultIcon)
	assert.Equal(t, now, m.ExportDate)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Len(t, m.FormatIcons, 4)

	other := NewTable("classcnbc", "Class CNBC", base, "", map[string]string{"Solo": "solo.jpg"})
	n, err := other.Import(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, ok := other.Lookup("Solo")
	assert.False(t, ok, "import replaces the mapping")
	assert.Equal(t, base+"tg.jpg", other.Resolve("TG CLASS CNBC"))
}

func TestImportRejectsInvalid(t *testing.T) {
	tbl := newTestTable()

	_, err := tbl.Import(strings.NewReader(`{"channel":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidMapping)

	_, err = tbl.Import(strings.NewReader(`not json`))
	assert.Error(t, err)

	assert.Equal(t, 4, tbl.Len(), "failed imports leave the table untouched")
}
