// SPDX-License-Identifier: MIT

package jobs

import (
	"fmt"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/metrics"
	"github.com/ManuGH/epgconv/internal/source"
)

// DepsFromConfig assembles the dependencies of a run for the channel
// configured under key; an empty key selects the default channel. Anomalies
// go to sink and to the diagnostics counter.
func DepsFromConfig(cfg config.Config, key string, sink diag.Sink) (Deps, error) {
	if key == "" {
		key = cfg.Channel
	}
	ch, err := cfg.Lookup(key)
	if err != nil {
		return Deps{}, err
	}
	adapter, err := source.New(ch.Kind(), cfg.FillerTitles())
	if err != nil {
		return Deps{}, fmt.Errorf("channel %q: %w", key, err)
	}
	table := ch.Table()
	return Deps{
		Channel:    key,
		Adapter:    adapter,
		Serializer: cfg.Serializer(table),
		Params: epg.Params{
			ChannelID:   ch.ID,
			ChannelName: ch.Name,
			OffsetHours: cfg.OffsetHours,
			FillGaps:    cfg.FillGaps,
		},
		Icons:   table,
		Sink:    diag.Multi(sink, metrics.DiagSink),
		Writer:  AtomicWriter{},
		Metrics: metrics.Recorder{},
	}, nil
}

// OptionsFromConfig returns the run options implied by cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		OutputDir:   cfg.OutputDir,
		Parallelism: cfg.Parallelism,
	}
}
