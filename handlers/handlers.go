// Package handlers provides the HTTP handlers of the monitor: loading the
// product list and history, starting runs and serving their results.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/giygas/nitrosamine-monitor/logging"
	"github.com/giygas/nitrosamine-monitor/monitor"
	"github.com/giygas/nitrosamine-monitor/sources"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// respondWithFailure maps a domain error to its status code.
func respondWithFailure(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.Error("Request failed", "error", err)
	}
	RespondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
		Code:    code,
		Kind:    string(sources.KindOf(err)),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, monitor.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, monitor.ErrNoProducts):
		return http.StatusPreconditionFailed
	}

	switch sources.KindOf(err) {
	case sources.UserInputFailure:
		return http.StatusBadRequest
	case sources.NetworkFailure, sources.FormatFailure, sources.ParseFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
