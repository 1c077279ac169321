package middleware

import (
	"context"
	"time"

	"github.com/parley-rpc/parley"
)

// Retry creates a marker that retries the wrapped call on transport errors,
// up to attempts tries total, sleeping delay between tries. Definition,
// argument, and response errors are never retried; neither is a call whose
// context is done.
func Retry(attempts int, delay time.Duration) parley.MethodMarker {
	if attempts < 1 {
		attempts = 1
	}

	return parley.WrapWith(func(next parley.CallFunc) parley.CallFunc {
		return func(ctx context.Context, svc *parley.BoundService, args []any) (any, error) {
			var res any
			var err error
			for try := 0; try < attempts; try++ {
				if try > 0 {
					select {
					case <-ctx.Done():
						return nil, parley.WrapError(parley.CodeTransport, ctx.Err(), "retry abandoned")
					case <-time.After(delay):
					}
				}
				res, err = next(ctx, svc, args)
				if err == nil || parley.CodeOf(err) != parley.CodeTransport {
					return res, err
				}
			}
			return res, err
		}
	})
}
