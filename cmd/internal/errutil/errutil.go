// Package errutil bridges oops-coded errors into slog.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// Attrs returns slog attributes for err. For oops errors it includes the code and the
// accumulated context.
func Attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}

// LogError logs err at error level with its structured context.
func LogError(logger *slog.Logger, msg string, err error, extra ...any) {
	logger.Error(msg, append(Attrs(err), extra...)...)
}

// LogWarn is LogError at warn level, for failures that are expected under load or attack.
func LogWarn(logger *slog.Logger, msg string, err error, extra ...any) {
	logger.Warn(msg, append(Attrs(err), extra...)...)
}
