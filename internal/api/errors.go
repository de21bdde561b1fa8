package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// CallerError marks a fault in the request itself: unknown operation,
// missing argument, wrong argument type, out-of-bounds index. Caller
// errors are returned immediately as structured errors and are never
// reported to the error tracker.
type CallerError struct {
	Message string
}

// Error implements the error interface.
func (e *CallerError) Error() string {
	return e.Message
}

// NewCallerError creates a CallerError.
func NewCallerError(format string, args ...any) *CallerError {
	return &CallerError{Message: fmt.Sprintf(format, args...)}
}

// IsCallerError reports whether the error is a caller error.
// Uses errors.As to handle wrapped errors.
func IsCallerError(err error) bool {
	var ce *CallerError
	return errors.As(err, &ce)
}

// Reporter is the error-tracking collaborator. Internal faults are
// reported exactly once, at the dispatch boundary.
type Reporter interface {
	Report(ctx context.Context, op Op, err error)
}

// LogReporter reports through slog. Deployments with a dedicated error
// tracker swap in their own Reporter.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(_ context.Context, op Op, err error) {
	slog.Error("operation fault",
		"op", string(op),
		"error", err,
		"stack", string(debug.Stack()),
	)
}

// errorValue converts a fault into the structured error object returned
// to the caller. Caller errors carry a message; internal faults carry a
// diagnostic trace for operators.
func errorValue(err error, stack []byte) map[string]any {
	var ce *CallerError
	if errors.As(err, &ce) {
		return map[string]any{
			"error": map[string]any{
				"kind":    "caller",
				"message": ce.Message,
			},
		}
	}
	return map[string]any{
		"error": map[string]any{
			"kind":      "internal",
			"traceback": fmt.Sprintf("%v\n\n%s", err, stack),
		},
	}
}
