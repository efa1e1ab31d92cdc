package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/julianstephens/unfilled/internal/storage"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      stderrors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "api error shows its message",
			err:      Wrap(stderrors.New("pq: connection refused"), http.StatusInternalServerError, "Failed to save day"),
			expected: "Error: Failed to save day",
		},
		{
			name:     "wrapped quota error gets a hint",
			err:      fmt.Errorf("failed to save 2024-01-01: %w", storage.ErrQuotaExceeded),
			expected: "Error: failed to save 2024-01-01: storage quota exceeded\n  hint: run 'unfilled day stats' to find the largest days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("connection to %s:%d failed", "localhost", 5432)
	if want := "Error: connection to localhost:5432 failed"; got != want {
		t.Errorf("Formatf() = %q, want %q", got, want)
	}

	got = Formatf("slug %q: %w", "harbor", storage.ErrSlugTaken)
	if !strings.Contains(got, "hint: pick another slug") {
		t.Errorf("Formatf() = %q, want slug hint", got)
	}
}

func TestHint(t *testing.T) {
	if got := Hint(stderrors.New("boom")); got != "" {
		t.Errorf("Hint() = %q, want empty", got)
	}
	if got := Hint(fmt.Errorf("delete: %w", storage.ErrAssetInUse)); got == "" {
		t.Error("Hint() = empty, want a hint for ErrAssetInUse")
	}
}

func captureFatal(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()
	var buf bytes.Buffer
	code := -1
	oldStderr, oldExit := stderr, exit
	stderr = &buf
	exit = func(c int) { code = c }
	t.Cleanup(func() { stderr, exit = oldStderr, oldExit })
	return &buf, &code
}

func TestFatal(t *testing.T) {
	buf, code := captureFatal(t)

	Fatal(stderrors.New("test error"))

	if *code != 1 {
		t.Errorf("Fatal() exit code = %d, want 1", *code)
	}
	if !strings.Contains(buf.String(), "Error: test error") {
		t.Errorf("Fatal() stderr = %q, want to contain %q", buf.String(), "Error: test error")
	}
}

func TestFatal_NilError(t *testing.T) {
	buf, code := captureFatal(t)

	Fatal(nil)

	if *code != -1 {
		t.Errorf("Fatal(nil) exited with %d", *code)
	}
	if buf.Len() != 0 {
		t.Errorf("Fatal(nil) wrote %q", buf.String())
	}
}
