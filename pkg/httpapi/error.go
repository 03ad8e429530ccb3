// Package httpapi writes the JSON bodies of the ops endpoint.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the body of every JSON error response. Message is the status
// text so no handler detail leaks.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, requestID string) error {
	return WriteJSON(w, status, ErrorBody{
		Code:      code,
		Message:   http.StatusText(status),
		RequestID: requestID,
	})
}
