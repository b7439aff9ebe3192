// SPDX-License-Identifier: MIT

package epg

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ManuGH/epgconv/internal/timeline"
)

const (
	DefaultLang    = "it"
	DefaultRating  = "0"
	DefaultUnrated = "U"

	ratingSystem  = "Italy Parental Rating"
	episodeSystem = "assetID"
	iconWidth     = 1920
	iconHeight    = 1080
	lengthUnits   = "seconds"
)

// Params are fixed for one conversion run.
type Params struct {
	ChannelID   string
	ChannelName string
	// OffsetHours is the local UTC offset of every instant in the run.
	OffsetHours float64
	FillGaps    bool
}

// IconResolver maps a format to a full icon URL.
type IconResolver interface {
	Resolve(format string) string
}

// Mappings remap raw source labels on output.
type Mappings struct {
	Category map[string]string
	Rating   map[string]string
	// DefaultRating replaces absent, unrated and unmapped ratings.
	DefaultRating string
	// Unrated is the raw value meaning "no rating".
	Unrated string
}

// Serializer renders finalized timelines. It holds no per-run state and is
// safe for concurrent use.
type Serializer struct {
	Mappings Mappings
	Icons    IconResolver
	Lang     string
	// LanguageTag drives title casing; it defaults to Italian.
	LanguageTag language.Tag
}

func (s *Serializer) lang() string {
	if s.Lang == "" {
		return DefaultLang
	}
	return s.Lang
}

// Build assembles the document for one day. Instants in progs are local and
// shifted to UTC here; a stop at the window end is written as 23:59:59.
func (s *Serializer) Build(progs []timeline.Program, params Params, win timeline.DayWindow) *TV {
	lang := s.lang()
	doc := &TV{
		Date: win.Key(),
		Channels: []Channel{{
			ID:          params.ChannelID,
			DisplayName: []Text{{Lang: lang, Value: params.ChannelName}},
		}},
		Programmes: make([]Programme, 0, len(progs)),
	}
	for _, p := range progs {
		doc.Programmes = append(doc.Programmes, s.programme(p, params, win))
	}
	return doc
}

func (s *Serializer) programme(p timeline.Program, params Params, win timeline.DayWindow) Programme {
	lang := s.lang()
	stop := p.End
	if stop.Equal(win.End) {
		stop = win.LastSecond()
	}

	out := Programme{
		Start:   FormatWire(ToUTC(p.Start, params.OffsetHours)),
		Stop:    FormatWire(ToUTC(stop, params.OffsetHours)),
		Channel: params.ChannelID,
		Title:   Text{Lang: lang, Value: s.DisplayTitle(p.Title)},
		Length:  &Length{Units: lengthUnits, Value: p.DurationSeconds()},
		Rating:  &Rating{System: ratingSystem, Value: s.Rating(p.Rating)},
	}
	if p.ProgramID != "" {
		out.EpisodeNum = &EpisodeNum{System: episodeSystem, Value: p.ProgramID}
	}
	if desc := Description(p); desc != "" {
		out.Desc = &Text{Lang: lang, Value: desc}
	}
	if cat := s.Category(p.Category); cat != "" {
		out.Category = &Text{Lang: lang, Value: cat}
	}
	if s.Icons != nil {
		out.Icon = &Icon{Src: s.Icons.Resolve(p.Title), Width: iconWidth, Height: iconHeight}
	}
	return out
}

// Render writes the document for one day to w.
func (s *Serializer) Render(w io.Writer, progs []timeline.Program, params Params, win timeline.DayWindow) error {
	out, err := Marshal(s.Build(progs, params, win))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// DisplayTitle upper-cases the first letter and lower-cases the rest.
func (s *Serializer) DisplayTitle(title string) string {
	if title == "" {
		return ""
	}
	tag := s.LanguageTag
	if tag == language.Und {
		tag = language.Italian
	}
	r, size := utf8.DecodeRuneInString(title)
	first := cases.Upper(tag).String(string(r))
	return first + cases.Lower(tag).String(title[size:])
}

// Rating maps a raw rating to its output code.
func (s *Serializer) Rating(raw string) string {
	def := s.Mappings.DefaultRating
	if def == "" {
		def = DefaultRating
	}
	unrated := s.Mappings.Unrated
	if unrated == "" {
		unrated = DefaultUnrated
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == unrated {
		return def
	}
	if v, ok := s.Mappings.Rating[raw]; ok && v != "" {
		return v
	}
	return def
}

// Category maps a raw category; unmapped values pass through.
func (s *Serializer) Category(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if v, ok := s.Mappings.Category[raw]; ok && v != "" {
		return v
	}
	return raw
}

// Description picks the first non-blank text differing from the title among
// the long, short and generic descriptions. Fillers fall back to their title.
func Description(p timeline.Program) string {
	for _, c := range []string{p.LongDesc, p.ShortDesc, p.Description} {
		c = strings.TrimSpace(c)
		if c != "" && c != p.Title {
			return c
		}
	}
	if p.IsFiller {
		return p.Title
	}
	return ""
}
