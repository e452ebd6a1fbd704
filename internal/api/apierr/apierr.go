package apierr

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// envelope is the error body every endpoint returns: {"message": ...}.
// Message is a string for most errors and a field→message map for
// validation failures.
type envelope struct {
	Message any `json:"message"`
}

// Write sends a {"message": <message>} error response. err carries the
// underlying cause for logging only; it is never exposed to clients.
// 5xx responses log at error level, 4xx at warn.
func Write(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	logFailure(r, status, message, err)
	writeJSON(w, status, envelope{Message: message})
}

// WriteFields sends a validation failure with a field→message map body.
func WriteFields(w http.ResponseWriter, r *http.Request, status int, fields map[string]string) {
	logFailure(r, status, "validation failed", nil)
	writeJSON(w, status, envelope{Message: fields})
}

// Internal sends a generic 500. The cause is logged, never leaked.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	Write(w, r, http.StatusInternalServerError, "Internal server error", err)
}

func logFailure(r *http.Request, status int, message string, err error) {
	if r == nil || status < 400 {
		return
	}
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= 500 {
		event = logger.Error()
	}
	event.
		Err(err).
		Int("status", status).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Msg(message)
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
