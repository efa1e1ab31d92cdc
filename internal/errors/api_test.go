package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsAPIError(t *testing.T) {
	base := BadRequest("Invalid preset: %s", "nope")
	wrapped := fmt.Errorf("handler: %w", base)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"direct", base, http.StatusBadRequest, "Invalid preset: nope"},
		{"wrapped", wrapped, http.StatusBadRequest, "Invalid preset: nope"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsAPIError(tt.err)
			if got.Status != tt.wantStatus {
				t.Errorf("AsAPIError().Status = %d, want %d", got.Status, tt.wantStatus)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("AsAPIError().Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, http.StatusInsufficientStorage, "Storage full")

	if !errors.Is(err, cause) {
		t.Error("errors.Is(Wrap(cause), cause) = false, want true")
	}
	if err.Details != "disk full" {
		t.Errorf("Details = %q, want %q", err.Details, "disk full")
	}
	if got := err.Error(); got != "Storage full: disk full" {
		t.Errorf("Error() = %q", got)
	}
}
