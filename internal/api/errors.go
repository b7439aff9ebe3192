// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/jobs"
	"github.com/ManuGH/epgconv/internal/log"
)

var errBadDate = errors.New("date must be YYYY-MM-DD")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as JSON.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldEvent, "http.error").Msg("request failed")
	}
	writeJSON(w, code, errorResponse{
		Error:     err.Error(),
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, config.ErrUnknownChannel):
		return http.StatusNotFound
	case errors.Is(err, errBadDate), errors.Is(err, errBadWorkbook), errors.Is(err, errBadDocument):
		return http.StatusBadRequest
	case errors.Is(err, jobs.ErrNoDays):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
