// SPDX-License-Identifier: MIT

// Package version carries build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release version.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("epgconv %s (commit: %s, built: %s, %s)", Version, Commit, Date, runtime.Version())
}
