// Package errors renders command failures for the terminal and carries the
// HTTP status of errors the server answers with.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/storage"
)

var hints = []struct {
	target error
	hint   string
}{
	{storage.ErrQuotaExceeded, "run '" + constants.AppName + " day stats' to find the largest days"},
	{storage.ErrSlugTaken, "pick another slug with '" + constants.AppName + " gallery share --slug'"},
	{storage.ErrAssetInUse, "delete the posts using the asset first"},
}

// Hint suggests a next step for errors the user can act on.
func Hint(err error) string {
	for _, h := range hints {
		if stderrors.Is(err, h.target) {
			return h.hint
		}
	}
	return ""
}

// Format renders err with an "Error: " prefix and, when one applies, a hint
// on the following line. API errors show their user-facing message.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	if hint := Hint(err); hint != "" {
		return fmt.Sprintf("Error: %s\n  hint: %s", msg, hint)
	}
	return "Error: " + msg
}

func Formatf(format string, args ...interface{}) string {
	return Format(fmt.Errorf(format, args...))
}

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Fatal logs err, prints it to stderr and exits with status 1. A nil err
// is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(stderr, Format(err))
	exit(1)
}
