// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/log"
)

// Environment variables read by the loader.
const (
	EnvConfig      = "EPGCONV_CONFIG"
	EnvLogLevel    = "EPGCONV_LOG_LEVEL"
	EnvOutputDir   = "EPGCONV_OUTPUT_DIR"
	EnvInboxDir    = "EPGCONV_INBOX_DIR"
	EnvChannel     = "EPGCONV_CHANNEL"
	EnvOffset      = "EPGCONV_TZ_OFFSET"
	EnvFillGaps    = "EPGCONV_FILL_GAPS"
	EnvListenAddr  = "EPGCONV_LISTEN_ADDR"
	EnvParallelism = "EPGCONV_PARALLELISM"
	EnvOTLPEnable  = "EPGCONV_OTEL_ENABLED"
	EnvOTLPTarget  = "EPGCONV_OTEL_ENDPOINT"
)

func envLogger() zerolog.Logger { return log.WithComponent("config") }

// lookup returns a non-empty environment value.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	if strings.TrimSpace(v) == "" {
		logger.Debug().
			Str("key", key).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return "", false
	}
	return v, true
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	logger := envLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Str("value", v).
		Str("source", "environment").
		Msg("using environment variable")
	return v
}

// ParseInt reads an integer from environment variable or returns default value.
// It falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := envLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Int("value", i).
		Str("source", "environment").
		Msg("using environment variable")
	return i
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := envLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
}

// ParseOffset reads a UTC offset in hours ("2", "-3.5", "+05:30") from the
// environment or returns default value.
func ParseOffset(key string, defaultValue float64) float64 {
	logger := envLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	hours, err := epg.ParseOffset(v)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid offset in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Float64("value", hours).
		Str("source", "environment").
		Msg("using environment variable")
	return hours
}
