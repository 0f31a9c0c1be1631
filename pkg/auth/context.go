package auth

import "context"

type contextKey struct{}

var identityKey = contextKey{}

// SetIdentity returns a context carrying the authenticated identity.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated identity, or nil if none.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// SubjectFromContext returns the authenticated subject, or "" if none.
func SubjectFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}
