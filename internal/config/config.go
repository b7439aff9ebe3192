// SPDX-License-Identifier: MIT

// Package config loads the converter configuration from defaults, a YAML
// file and EPGCONV_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/formats"
	"github.com/ManuGH/epgconv/internal/source"
)

// ErrUnknownChannel is returned when a channel key is not configured.
var ErrUnknownChannel = errors.New("unknown channel")

// Channel describes one output channel and the workbook layout it is fed from.
type Channel struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Source      string            `yaml:"source" json:"source"`
	IconBaseURL string            `yaml:"iconBaseUrl" json:"iconBaseUrl"`
	DefaultIcon string            `yaml:"defaultIcon,omitempty" json:"defaultIcon,omitempty"`
	Icons       map[string]string `yaml:"icons,omitempty" json:"icons,omitempty"`
}

// Kind returns the source layout of the channel.
func (c Channel) Kind() source.Kind { return source.Kind(c.Source) }

// Table builds the format icon table of the channel.
func (c Channel) Table() *formats.Table {
	return formats.NewTable(c.ID, c.Name, c.IconBaseURL, c.DefaultIcon, c.Icons)
}

// Mappings remap source labels on output.
type Mappings struct {
	Category      map[string]string `yaml:"category" json:"category"`
	Rating        map[string]string `yaml:"rating" json:"rating"`
	DefaultRating string            `yaml:"defaultRating" json:"defaultRating"`
	Unrated       string            `yaml:"unrated" json:"unrated"`
}

// Fillers are the titles given to synthesized programs.
type Fillers struct {
	FullDay string `yaml:"fullDay" json:"fullDay"`
	Partial string `yaml:"partial" json:"partial"`
}

// Telemetry configures trace export.
type Telemetry struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Exporter    string  `yaml:"exporter" json:"exporter"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	SampleRatio float64 `yaml:"sampleRatio" json:"sampleRatio"`
}

// Config is the complete runtime configuration.
type Config struct {
	Version string `yaml:"-" json:"-"`

	LogLevel    string  `yaml:"logLevel" json:"logLevel"`
	Channel     string  `yaml:"channel" json:"channel"`
	OutputDir   string  `yaml:"outputDir" json:"outputDir"`
	InboxDir    string  `yaml:"inboxDir" json:"inboxDir"`
	OffsetHours float64 `yaml:"tzOffset" json:"tzOffset"`
	FillGaps    bool    `yaml:"fillGaps" json:"fillGaps"`
	Lang        string  `yaml:"lang" json:"lang"`
	ListenAddr  string  `yaml:"listenAddr" json:"listenAddr"`
	Parallelism int     `yaml:"parallelism" json:"parallelism"`
	MetricsFile string  `yaml:"metricsFile,omitempty" json:"metricsFile,omitempty"`

	Channels  map[string]Channel `yaml:"channels" json:"channels"`
	Mappings  Mappings           `yaml:"mappings" json:"mappings"`
	Fillers   Fillers            `yaml:"fillers" json:"fillers"`
	Telemetry Telemetry          `yaml:"telemetry" json:"telemetry"`
}

const iconHost = "https://df4c28da231b4c30821e57d5f2111c23.msvdn.net/feeds/epg/"

// Defaults returns the built-in configuration. Every call returns fresh maps.
func Defaults() Config {
	return Config{
		LogLevel:    "info",
		Channel:     "classcnbc",
		OutputDir:   "xmltv",
		InboxDir:    "inbox",
		OffsetHours: 2,
		FillGaps:    true,
		Lang:        epg.DefaultLang,
		ListenAddr:  ":8080",
		Parallelism: 4,
		Channels: map[string]Channel{
			"classcnbc": {
				ID:          "ClassCNBC",
				Name:        "Class CNBC",
				Source:      string(source.KindRowStream),
				IconBaseURL: iconHost + "ClassCNBC_IT_samsung/Images/",
				DefaultIcon: formats.DefaultIcon,
			},
			"tvmoda": {
				ID:          "ClassTVModa",
				Name:        "Class TV Moda",
				Source:      string(source.KindGrid),
				IconBaseURL: iconHost + "ClassTVModa_IT_samsung/Images/",
				DefaultIcon: formats.DefaultIcon,
			},
		},
		Mappings: Mappings{
			Category: map[string]string{
				"Informazione": "News",
				"Economia":     "Business",
				"Fashion":      "Fashion",
				"Lifestyle":    "Lifestyle",
			},
			Rating: map[string]string{
				"U":    "0",
				"T":    "6",
				"VM14": "14",
				"VM18": "18",
			},
			DefaultRating: epg.DefaultRating,
			Unrated:       epg.DefaultUnrated,
		},
		Fillers: Fillers{
			FullDay: source.DefaultFillerTitles.FullDay,
			Partial: source.DefaultFillerTitles.Partial,
		},
		Telemetry: Telemetry{
			Exporter:    "grpc",
			SampleRatio: 1,
		},
	}
}

// Lookup returns the channel configured under key.
func (c Config) Lookup(key string) (Channel, error) {
	ch, ok := c.Channels[key]
	if !ok {
		return Channel{}, fmt.Errorf("%w %q (configured: %v)", ErrUnknownChannel, key, c.ChannelKeys())
	}
	return ch, nil
}

// ChannelKeys lists the configured channel keys in order.
func (c Config) ChannelKeys() []string {
	keys := make([]string, 0, len(c.Channels))
	for k := range c.Channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FillerTitles returns the configured filler titles.
func (c Config) FillerTitles() source.FillerTitles {
	return source.FillerTitles{FullDay: c.Fillers.FullDay, Partial: c.Fillers.Partial}
}

// Serializer builds an output serializer using the configured mappings and
// the given icon resolver.
func (c Config) Serializer(icons epg.IconResolver) *epg.Serializer {
	return &epg.Serializer{
		Mappings: epg.Mappings{
			Category:      c.Mappings.Category,
			Rating:        c.Mappings.Rating,
			DefaultRating: c.Mappings.DefaultRating,
			Unrated:       c.Mappings.Unrated,
		},
		Icons: icons,
		Lang:  c.Lang,
	}
}
