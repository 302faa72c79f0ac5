package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/digkill/AstroImages/internal/apperr"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
	maxBodyBytes    = 1 << 20
)

type successEnvelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool        `json:"success"`
	ErrorCode apperr.Code `json:"errorCode"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path,omitempty"`
}

func timestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", "err", err)
	}
}

func (s *Server) writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	s.writeJSON(w, status, successEnvelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: timestamp(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "code", appErr.Code, "err", err)
	}
	s.writeJSON(w, status, errorEnvelope{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Timestamp: timestamp(),
		Path:      r.URL.Path,
	})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.ValidationFailed, "Request body is required")
		}
		return apperr.New(apperr.ValidationFailed, fmt.Sprintf("Invalid JSON body: %v", err))
	}
	return nil
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, apperr.New(apperr.NotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)))
}
