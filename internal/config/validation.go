// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/ManuGH/epgconv/internal/source"
	"github.com/ManuGH/epgconv/internal/validate"
)

// MaxOffsetHours bounds the configured UTC offset in both directions.
const MaxOffsetHours = 14

// Validate checks the configuration and aggregates every problem found.
func Validate(cfg Config) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)
	v.Dir("outputDir", cfg.OutputDir)
	v.Dir("inboxDir", cfg.InboxDir)
	v.FloatRange("tzOffset", cfg.OffsetHours, -MaxOffsetHours, MaxOffsetHours)
	v.ListenAddr("listenAddr", cfg.ListenAddr)
	v.Range("parallelism", cfg.Parallelism, 1, 64)
	v.NotEmpty("lang", cfg.Lang)
	v.NotEmpty("fillers.fullDay", cfg.Fillers.FullDay)
	v.NotEmpty("fillers.partial", cfg.Fillers.Partial)
	v.NotEmpty("mappings.defaultRating", cfg.Mappings.DefaultRating)

	if len(cfg.Channels) == 0 {
		v.AddError("channels", "at least one channel is required", nil)
	}
	kinds := make([]string, 0, len(source.Kinds()))
	for _, k := range source.Kinds() {
		kinds = append(kinds, string(k))
	}
	for _, key := range cfg.ChannelKeys() {
		ch := cfg.Channels[key]
		field := fmt.Sprintf("channels.%s", key)
		v.NotEmpty(field+".id", ch.ID)
		v.NotEmpty(field+".name", ch.Name)
		v.OneOf(field+".source", ch.Source, kinds)
		v.URL(field+".iconBaseUrl", ch.IconBaseURL, []string{"http", "https"})
	}
	if cfg.Channel != "" {
		if _, ok := cfg.Channels[cfg.Channel]; !ok {
			v.AddError("channel", fmt.Sprintf("channel %q is not configured", cfg.Channel), cfg.Channel)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
			v.AddError("telemetry.sampleRatio", "must be between 0 and 1", cfg.Telemetry.SampleRatio)
		}
	}

	return v.Err()
}
