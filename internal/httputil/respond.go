// Package httputil holds small helpers shared by HTTP handlers and
// middleware for writing JSON responses.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/TylMus/tylmus-backend/internal/logging"
)

// errorBody is the wire shape for error responses. The flat "error"
// string is what game clients display; code and details add structure
// for API consumers without breaking that contract.
type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures are
// ignored at this point; headers are already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteErrorResponse writes a structured error, picking up the trace ID
// from the request context when present.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	body := errorBody{Error: message, Code: code, Details: details}
	if r != nil {
		body.TraceID = logging.GetTraceID(r.Context())
	}
	WriteJSON(w, status, body)
}

// BadRequest writes a 400 with a plain error message.
func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: message})
}

// Unauthorized writes a 401 with a plain error message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Authentication required"
	}
	WriteJSON(w, http.StatusUnauthorized, errorBody{Error: message})
}

// NotFound writes a 404 with a plain error message.
func NotFound(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusNotFound, errorBody{Error: message})
}

// InternalError writes a 500 with a plain error message.
func InternalError(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: message})
}
