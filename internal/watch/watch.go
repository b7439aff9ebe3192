// SPDX-License-Identifier: MIT

// Package watch converts workbooks as they are dropped into an inbox
// directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/epgconv/internal/log"
)

// DefaultDebounce is how long a file must stay quiet before it is converted.
const DefaultDebounce = time.Second

// ConvertFunc processes one settled workbook.
type ConvertFunc func(ctx context.Context, path string) error

// Watcher feeds settled workbooks from Dir to Convert, one at a time.
type Watcher struct {
	Dir      string
	Convert  ConvertFunc
	Debounce time.Duration
	// ScanExisting converts the workbooks already present when Run starts.
	ScanExisting bool

	logger zerolog.Logger
}

// New returns a watcher over dir with the default debounce.
func New(dir string, convert ConvertFunc) *Watcher {
	return &Watcher{
		Dir:      dir,
		Convert:  convert,
		Debounce: DefaultDebounce,
		logger:   log.WithComponent("watch"),
	}
}

// IsWorkbook reports whether name looks like a workbook worth converting.
// Office lock files and hidden files are ignored.
func IsWorkbook(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Run watches until ctx is done. Conversion failures are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Convert == nil {
		return fmt.Errorf("watch: no convert function")
	}
	if err := os.MkdirAll(w.Dir, 0o750); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	w.logger.Info().
		Str(log.FieldEvent, "watch.started").
		Str(log.FieldPath, w.Dir).
		Dur("debounce", w.debounce()).
		Msg("watching inbox")

	pending := make(map[string]time.Time)
	if w.ScanExisting {
		existing, err := w.existing()
		if err != nil {
			return err
		}
		now := time.Now()
		for _, p := range existing {
			pending[p] = now
		}
	}

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	w.arm(timer, pending)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(log.FieldEvent, "watch.stopped").Msg("inbox watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsWorkbook(event.Name) {
				continue
			}
			pending[event.Name] = time.Now().Add(w.debounce())
			w.arm(timer, pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Str(log.FieldEvent, "watch.error").Msg("inbox watcher error")

		case now := <-timer.C:
			for _, p := range due(pending, now) {
				delete(pending, p)
				w.process(ctx, p)
			}
			w.arm(timer, pending)
		}
	}
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce <= 0 {
		return DefaultDebounce
	}
	return w.Debounce
}

func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return nil, fmt.Errorf("scan inbox: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsWorkbook(e.Name()) {
			out = append(out, filepath.Join(w.Dir, e.Name()))
		}
	}
	return out, nil
}

func (w *Watcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		// Removed or renamed while settling.
		return
	}
	start := time.Now()
	if err := w.Convert(ctx, path); err != nil {
		w.logger.Error().
			Err(err).
			Str(log.FieldEvent, "watch.convert_failed").
			Str(log.FieldPath, path).
			Msg("workbook conversion failed")
		return
	}
	w.logger.Info().
		Str(log.FieldEvent, "watch.converted").
		Str(log.FieldPath, path).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("workbook converted")
}

// arm resets timer to the earliest pending deadline.
func (w *Watcher) arm(timer *time.Timer, pending map[string]time.Time) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	if len(pending) == 0 {
		return
	}
	var next time.Time
	for _, at := range pending {
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	timer.Reset(max(time.Until(next), 0))
}

// due lists the pending paths whose deadline has passed, in name order.
func due(pending map[string]time.Time, now time.Time) []string {
	var out []string
	for p, at := range pending {
		if !at.After(now) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
