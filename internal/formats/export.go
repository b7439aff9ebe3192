// SPDX-License-Identifier: MIT

package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidMapping is returned when an import carries no format mapping.
var ErrInvalidMapping = errors.New("invalid icon mapping")

// maxImportSize bounds an imported mapping document.
const maxImportSize = 4 * 1024 * 1024

// Mapping is the portable form of a Table.
type Mapping struct {
	Channel     string            `json:"channel"`
	ChannelName string            `json:"channelName"`
	FormatIcons map[string]string `json:"formatIcons"`
	DefaultIcon string            `json:"defaultIcon"`
	ExportDate  time.Time         `json:"exportDate"`
	Version     string            `json:"version"`
}

// Export writes the table as indented JSON.
func (t *Table) Export(w io.Writer, now time.Time, version string) error {
	m := Mapping{
		Channel:     t.Channel,
		ChannelName: t.ChannelName,
		FormatIcons: t.Icons(),
		DefaultIcon: t.DefaultURL(),
		ExportDate:  now.UTC(),
		Version:     version,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode icon mapping: %w", err)
	}
	return nil
}

// Import replaces the table's mapping with the one in r and returns the
// number of formats loaded. The table is untouched on error.
func (t *Table) Import(r io.Reader) (int, error) {
	var m Mapping
	dec := json.NewDecoder(io.LimitReader(r, maxImportSize))
	if err := dec.Decode(&m); err != nil {
		return 0, fmt.Errorf("decode icon mapping: %w", err)
	}
	if m.FormatIcons == nil {
		return 0, ErrInvalidMapping
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.replace(m.FormatIcons)
	return len(t.icons), nil
}
