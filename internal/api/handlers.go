// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/epg"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/log"
	"github.com/ManuGH/epgconv/internal/metrics"
	"github.com/ManuGH/epgconv/internal/sheet"
	"github.com/ManuGH/epgconv/internal/source"
	"github.com/ManuGH/epgconv/internal/verify"
)

var (
	errBadWorkbook = errors.New("invalid workbook")
	errBadDocument = errors.New("invalid xmltv document")
)

const defaultUploadName = "upload.xlsx"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	cfg := s.cfg.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"channels": cfg.ChannelKeys(),
	})
}

// readWorkbook decodes the raw request body. The workbook name comes from
// the name query parameter.
func readWorkbook(r *http.Request) (*sheet.Workbook, error) {
	book, err := sheet.ReadXLSX(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadWorkbook, err)
	}
	book.Name = defaultUploadName
	if name := r.URL.Query().Get("name"); name != "" {
		book.Name = epg.SafeName(name)
	}
	return book, nil
}

func (s *Server) deps(r *http.Request) (jobs.Deps, error) {
	cfg := s.cfg.Get()
	logger := log.WithComponentFromContext(r.Context(), "api")
	deps, err := jobs.DepsFromConfig(cfg, r.URL.Query().Get("channel"), diag.NewLogSink(logger))
	if err != nil {
		return jobs.Deps{}, err
	}
	deps.Clock = s.clock
	return deps, nil
}

type detectedDay struct {
	Day   string `json:"day"`
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	Rows  int    `json:"rows"`
}

type detectResponse struct {
	Workbook    string            `json:"workbook"`
	Channel     string            `json:"channel"`
	Source      source.Kind       `json:"source"`
	Days        []detectedDay     `json:"days"`
	Formats     []string          `json:"formats"`
	Missing     []string          `json:"missing"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
	Anomalies   map[diag.Kind]int `json:"anomalies"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	resp, err := s.detect(r)
	metrics.RecordUpload("detect", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) detect(r *http.Request) (*detectResponse, error) {
	deps, err := s.deps(r)
	if err != nil {
		return nil, err
	}
	book, err := readWorkbook(r)
	if err != nil {
		return nil, err
	}

	journal := &diag.Journal{}
	dates := deps.Adapter.Detect(book, s.clock(), diag.Multi(deps.Sink, journal))
	found := source.CollectFormats(deps.Adapter, dates)
	scan := deps.Icons.Scan(found)

	resp := &detectResponse{
		Workbook:    book.Name,
		Channel:     deps.Channel,
		Source:      deps.Adapter.Kind(),
		Days:        make([]detectedDay, 0, len(dates)),
		Formats:     found,
		Missing:     scan.Missing,
		Suggestions: deps.Icons.Suggestions(scan.Missing),
		Anomalies:   journal.Counts(),
	}
	for _, d := range dates {
		resp.Days = append(resp.Days, detectedDay{Day: d.Key(), Sheet: d.Sheet, Row: d.Row, Rows: len(d.Rows)})
	}
	return resp, nil
}

// handleConvert reconciles an uploaded workbook without writing files. With
// a date parameter it answers with that day's document, otherwise with the
// run summary.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	sum, day, err := s.convert(r)
	metrics.RecordUpload("convert", err)
	if err != nil {
		if day != "" && errors.Is(err, jobs.ErrNoDays) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error:     err.Error(),
				RequestID: log.RequestIDFromContext(r.Context()),
			})
			return
		}
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Run-ID", sum.RunID)
	if day == "" {
		writeJSON(w, http.StatusOK, sum)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if res := sum.Days[0]; res.Warning != "" {
		w.Header().Set("X-Warning", res.Warning)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sum.Days[0].Document)
}

func (s *Server) convert(r *http.Request) (*jobs.Summary, string, error) {
	day := r.URL.Query().Get("date")
	if day != "" {
		if _, err := time.Parse(time.DateOnly, day); err != nil {
			return nil, day, fmt.Errorf("%w: %q", errBadDate, day)
		}
	}
	deps, err := s.deps(r)
	if err != nil {
		return nil, day, err
	}
	book, err := readWorkbook(r)
	if err != nil {
		return nil, day, err
	}

	opts := jobs.OptionsFromConfig(s.cfg.Get())
	opts.DryRun = true
	if day != "" {
		opts.Days = []string{day}
	}
	sum, err := jobs.Convert(r.Context(), book, deps, opts)
	if err != nil {
		return nil, day, err
	}
	return sum, day, nil
}

type verifyResponse struct {
	Stats    verify.Stats     `json:"stats"`
	Problems []verify.Problem `json:"problems"`
	Skipped  []string         `json:"skipped,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	doc, err := epg.ReadDocument(r.Body)
	if err != nil {
		err = fmt.Errorf("%w: %w", errBadDocument, err)
		metrics.RecordUpload("verify", err)
		writeError(w, r, err)
		return
	}
	metrics.RecordUpload("verify", nil)

	entries, err := verify.Entries(doc, r.URL.Query().Get("channel"))
	resp := verifyResponse{
		Stats:    verify.Analyze(entries),
		Problems: verify.Problems(entries),
	}
	if resp.Problems == nil {
		resp.Problems = []verify.Problem{}
	}
	if err != nil {
		resp.Skipped = unwrapAll(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// unwrapAll lists the messages of a joined error.
func unwrapAll(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
