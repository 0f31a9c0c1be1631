package transport

import (
	"context"
	"fmt"

	"github.com/prompt-arena/arena/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Comparer) Comparer {
		return ComparerFunc(func(ctx context.Context, req *api.CompareRequest) (resp *api.CompareResponse, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Compare(ctx, req)
		})
	}
}
