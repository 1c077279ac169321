// Package middleware provides reusable wrap hooks for bound methods:
// markers built on parley.WrapWith that decorate the generated dispatch
// callable with logging and retry behavior.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/parley-rpc/parley"
)

// Logging creates a marker that logs every call on the method it is
// attached to: start, completion with duration, and failures with the
// error. A nil logger falls back to slog.Default.
func Logging(logger *slog.Logger) parley.MethodMarker {
	if logger == nil {
		logger = slog.Default()
	}

	return parley.WrapWith(func(next parley.CallFunc) parley.CallFunc {
		return func(ctx context.Context, svc *parley.BoundService, args []any) (any, error) {
			start := time.Now()
			logger.DebugContext(ctx, "call started")

			res, err := next(ctx, svc, args)
			duration := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "call failed",
					slog.Duration("duration", duration),
					slog.Any("error", err),
				)
			} else {
				logger.InfoContext(ctx, "call completed",
					slog.Duration("duration", duration),
				)
			}
			return res, err
		}
	})
}
