package transport

import (
	"context"

	"github.com/prompt-arena/arena/pkg/api"
)

// Comparer handles the core compare operation: one prompt in, one
// aggregated batch of provider envelopes out. Provider-level failures
// are folded into the response; a returned error means the request
// itself failed (validation or internal fault).
type Comparer interface {
	Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error)
}

// ComparerFunc is an adapter that allows using an ordinary function
// as a Comparer.
type ComparerFunc func(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error)

// Compare calls f(ctx, req).
func (f ComparerFunc) Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error) {
	return f(ctx, req)
}
