// SPDX-License-Identifier: MIT
package epg

import (
	"regexp"
	"strings"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-.]`)
	separatorRun    = regexp.MustCompile(`[\s.\-_]+`)
	idChars         = regexp.MustCompile(`[^a-z0-9À-ÿ\s.\-_]`)
)

// FileName is the output file name of one broadcast day.
func FileName(dayKey string) string {
	return SafeName(dayKey) + ".xml"
}

// SafeName replaces every character outside [A-Za-z0-9_.-] with '_'.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "_"
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// StableID derives a channel identifier from a display name, for channels
// configured without one: "Class CNBC" becomes "class.cnbc".
func StableID(name string) string {
	cleaned := idChars.ReplaceAllString(strings.ToLower(name), "")
	return strings.Trim(separatorRun.ReplaceAllString(cleaned, "."), ".")
}
