package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/julianstephens/unfilled/internal/errors"
	"github.com/julianstephens/unfilled/internal/logger"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeAPIError answers with the status and message carried by err, or a
// 500 when err is not an APIError.
func writeAPIError(w http.ResponseWriter, err error) {
	apiErr := apperrors.AsAPIError(err)
	writeJSON(w, apiErr.Status, errorBody{Error: apiErr.Message, Details: apiErr.Details})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg string, err error) {
	body := errorBody{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body of at most limit bytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}
