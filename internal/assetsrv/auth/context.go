package auth

import "context"

type ctxKeyType string

const identityContextKey ctxKeyType = "identity"

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the authenticated identity, or "" when the
// server runs without authentication.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(identityContextKey).(string); ok {
		return v
	}
	return ""
}
