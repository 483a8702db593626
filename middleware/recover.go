package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/quivertask/quiver/task"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace, so
// a panicking task body settles its own future instead of killing the
// scheduler goroutine.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("task panicked",
					slog.String("task_id", t.ID.String()),
					slog.String("task_name", t.Name),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in task %s: %v", t.ID.String(), r)
			}
		}()
		return next(ctx)
	}
}
