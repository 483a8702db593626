package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/quivertask/quiver/task"
)

// Logging returns middleware that logs task start and settlement.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) error {
		logger.Info("task started",
			slog.String("task_id", t.ID.String()),
			slog.String("task_name", t.Name),
			slog.Int("priority", t.Priority),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("task failed",
				slog.String("task_id", t.ID.String()),
				slog.String("task_name", t.Name),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("task completed",
				slog.String("task_id", t.ID.String()),
				slog.String("task_name", t.Name),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
