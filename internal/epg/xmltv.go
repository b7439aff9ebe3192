// SPDX-License-Identifier: MIT

// Package epg renders broadcast days as XMLTV documents and reads them back.
package epg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// xmlHeader prefixes every written document.
const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// maxXMLSize bounds documents read back for verification.
const maxXMLSize = 50 * 1024 * 1024

// TV is the document root. Date is the broadcast day, YYYY-MM-DD.
type TV struct {
	XMLName    xml.Name    `xml:"tv"`
	Date       string      `xml:"date,attr,omitempty"`
	Channels   []Channel   `xml:"channel"`
	Programmes []Programme `xml:"programme"`
}

type Channel struct {
	ID          string `xml:"id,attr"`
	DisplayName []Text `xml:"display-name"`
	Icon        *Icon  `xml:"icon,omitempty"`
}

// Text is character data with an optional language.
type Text struct {
	Lang  string `xml:"lang,attr,omitempty"`
	Value string `xml:",chardata"`
}

type Icon struct {
	Src    string `xml:"src,attr"`
	Width  int    `xml:"width,attr,omitempty"`
	Height int    `xml:"height,attr,omitempty"`
}

type EpisodeNum struct {
	System string `xml:"system,attr,omitempty"`
	Value  string `xml:",chardata"`
}

type Length struct {
	Units string `xml:"units,attr"`
	Value int64  `xml:",chardata"`
}

type Rating struct {
	System string `xml:"system,attr,omitempty"`
	Value  string `xml:"value"`
}

type Programme struct {
	Start      string      `xml:"start,attr"`
	Stop       string      `xml:"stop,attr"`
	Channel    string      `xml:"channel,attr"`
	EpisodeNum *EpisodeNum `xml:"episode-num,omitempty"`
	Title      Text        `xml:"title"`
	Desc       *Text       `xml:"desc,omitempty"`
	Length     *Length     `xml:"length,omitempty"`
	Rating     *Rating     `xml:"rating,omitempty"`
	Category   *Text       `xml:"category,omitempty"`
	Icon       *Icon       `xml:"icon,omitempty"`
}

// Marshal renders doc with the XML header and two-space indentation.
func Marshal(doc *TV) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode xmltv: %w", err)
	}
	buf := make([]byte, 0, len(xmlHeader)+len(out)+1)
	buf = append(buf, xmlHeader...)
	buf = append(buf, out...)
	return append(buf, '\n'), nil
}

// ReadDocument decodes one XMLTV document. Entity expansion is disabled and
// input beyond maxXMLSize is ignored.
func ReadDocument(r io.Reader) (*TV, error) {
	dec := xml.NewDecoder(io.LimitReader(r, maxXMLSize))
	dec.Strict = true
	dec.Entity = make(map[string]string)

	var doc TV
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode xmltv: empty document")
		}
		return nil, fmt.Errorf("decode xmltv: %w", err)
	}
	return &doc, nil
}

// ReadFile decodes the XMLTV document at path.
func ReadFile(path string) (*TV, error) {
	path = filepath.Clean(path)
	// #nosec G304 -- documents are provided by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadDocument(f)
}
