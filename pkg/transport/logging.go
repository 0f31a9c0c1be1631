package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
)

// Logging returns middleware that emits one structured log entry per
// comparison. The entry includes the request ID (from context), the
// optional model filter, fan-out size, duration, and whether the request
// succeeded or failed. Prompt content is never logged at this level.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Comparer) Comparer {
		return ComparerFunc(func(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			resp, err := next.Compare(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("model", req.Model),
				slog.Duration("duration", time.Since(start)),
			}
			if resp != nil {
				attrs = append(attrs, slog.Int("providers", len(resp.Responses)))
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "compare failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "compare completed", attrs...)
			}

			return resp, err
		})
	}
}
