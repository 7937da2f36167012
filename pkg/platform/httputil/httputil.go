// Package httputil writes the JSON response envelope shared by every route:
//
//	{success, message, data?, errors?, error?}
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "agencyhub/pkg/domain-errors"
)

// Envelope is the response body for both successes and failures.
type Envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Data    any                  `json:"data,omitempty"`
	Errors  []dErrors.FieldError `json:"errors,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes {success: true, message, data}.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError translates a domain error into status and envelope. Internal
// errors keep the caller-facing message but never expose the underlying cause.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	env := Envelope{
		Success: false,
		Message: dErrors.MessageOf(err, "internal error"),
		Error:   string(code),
	}
	if fields := dErrors.FieldsOf(err); len(fields) > 0 {
		env.Errors = fields
	}
	WriteJSON(w, status, env)
}
