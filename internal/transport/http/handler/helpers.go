// internal/transport/http/handler/helpers.go
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/validation"
)

// maxBodyBytes bounds request bodies; notification payloads are small.
const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidationEnvelope is the 400 response for schema failures.
type ValidationEnvelope struct {
	Error   string                       `json:"error"`
	Details []validation.ValidationError `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error onto the client-facing status. Internal
// errors surface a generic message; detail stays in the server log.
func httpError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeValidationFailure(w http.ResponseWriter, res *validation.ValidationResult) {
	writeJSON(w, http.StatusBadRequest, ValidationEnvelope{
		Error:   "Validation failed",
		Details: res.Errors,
	})
}

// readValidated reads the body, checks it against the schema, and
// decodes it into dst. A false return means the response is written.
func readValidated(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if res := schema.ValidateBytes(body); !res.Valid {
		writeValidationFailure(w, res)
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
