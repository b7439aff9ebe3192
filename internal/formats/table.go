// SPDX-License-Identifier: MIT

// Package formats maps program formats (titles) to channel icon files.
package formats

import (
	"sort"
	"strings"
	"sync"

	unorm "golang.org/x/text/unicode/norm"
)

// DefaultIcon is the file used when a format has no mapping.
const DefaultIcon = "default.jpg"

// Key normalises a format for case-insensitive matching.
func Key(format string) string {
	s := unorm.NFC.String(strings.TrimSpace(format))
	return unorm.NFC.String(strings.ToUpper(s))
}

// Table is one channel's format to icon mapping. It is safe for concurrent use.
type Table struct {
	Channel     string
	ChannelName string
	BaseURL     string
	DefaultIcon string

	mu    sync.RWMutex
	icons map[string]string // as configured
	index map[string]string // Key(format) -> configured format
}

// NewTable builds a table from a configured mapping.
func NewTable(channel, channelName, baseURL, defaultIcon string, icons map[string]string) *Table {
	if defaultIcon == "" {
		defaultIcon = DefaultIcon
	}
	t := &Table{
		Channel:     channel,
		ChannelName: channelName,
		BaseURL:     baseURL,
		DefaultIcon: defaultIcon,
	}
	t.replace(icons)
	return t
}

func (t *Table) replace(icons map[string]string) {
	t.icons = make(map[string]string, len(icons))
	t.index = make(map[string]string, len(icons))
	for format, icon := range icons {
		t.setLocked(format, icon)
	}
}

func (t *Table) setLocked(format, icon string) {
	k := Key(format)
	if prev, ok := t.index[k]; ok {
		delete(t.icons, prev)
	}
	t.icons[format] = icon
	t.index[k] = format
}

// Set adds or replaces the icon of format.
func (t *Table) Set(format, icon string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(format, icon)
}

// Lookup returns the icon file mapped to format, ignoring case.
func (t *Table) Lookup(format string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	configured, ok := t.index[Key(format)]
	if !ok {
		return "", false
	}
	return t.icons[configured], true
}

// Resolve returns the full icon URL for format, falling back to the default icon.
func (t *Table) Resolve(format string) string {
	if icon, ok := t.Lookup(format); ok && icon != "" {
		return t.BaseURL + icon
	}
	return t.BaseURL + t.DefaultIcon
}

// DefaultURL is the URL served for unmapped formats.
func (t *Table) DefaultURL() string { return t.BaseURL + t.DefaultIcon }

// Icons returns a copy of the configured mapping.
func (t *Table) Icons() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.icons))
	for k, v := range t.icons {
		out[k] = v
	}
	return out
}

// Len is the number of mapped formats.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.icons)
}

// Formats lists the configured formats, sorted.
func (t *Table) Formats() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.icons))
	for k := range t.icons {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ScanResult splits detected formats by whether they have an icon.
type ScanResult struct {
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
}

// Scan checks detected formats against the table, preserving input order.
func (t *Table) Scan(detected []string) ScanResult {
	res := ScanResult{Found: []string{}, Missing: []string{}}
	for _, f := range detected {
		if _, ok := t.Lookup(f); ok {
			res.Found = append(res.Found, f)
		} else {
			res.Missing = append(res.Missing, f)
		}
	}
	return res
}

// AddMissing maps every unmapped detected format to the default icon and
// returns the formats it added.
func (t *Table) AddMissing(detected []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var added []string
	for _, f := range detected {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := t.index[Key(f)]; ok {
			continue
		}
		t.setLocked(f, t.DefaultIcon)
		added = append(added, f)
	}
	return added
}
