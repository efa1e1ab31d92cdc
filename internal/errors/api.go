package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError is an error carrying the HTTP status and the user-facing message
// the server should answer with.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// BadRequest builds a 400 error.
func BadRequest(format string, args ...interface{}) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a 404 error.
func NotFound(format string, args ...interface{}) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a status and message to err. The wrapped error text is
// exposed as Details.
func Wrap(err error, status int, message string) *APIError {
	apiErr := &APIError{Status: status, Message: message, Err: err}
	if err != nil {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// AsAPIError converts any error into an APIError, defaulting to a 500 with a
// generic message.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(err, http.StatusInternalServerError, "Internal server error")
}
