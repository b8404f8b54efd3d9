// Package refresh reloads the record cache in the background, either on a
// cron schedule or when the database file changes on disk.
package refresh

import (
	"context"
	"log/slog"

	"github.com/example/appointment-scheduler/internal/logging"
)

// Refresher reloads cached state from the store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) error

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

func run(ctx context.Context, target Refresher, logger *slog.Logger, trigger string) {
	ctx = logging.ContextWithLogger(ctx, logger.With("trigger", trigger))
	if err := target.Refresh(ctx); err != nil {
		logger.ErrorContext(ctx, "refresh failed", "trigger", trigger, "error", err)
		return
	}
	logger.DebugContext(ctx, "refresh completed", "trigger", trigger)
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
