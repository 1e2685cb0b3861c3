package middleware

import (
	"context"

	"usersvc/cmd/security/token"
)

type contextKey struct{}

// WithAccessClaims returns a context carrying verified access claims.
func WithAccessClaims(ctx context.Context, claims token.AccessClaims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// AccessClaimsFrom extracts the verified access claims attached by Wrap.
// The second return is false on requests that bypassed authentication.
func AccessClaimsFrom(ctx context.Context) (token.AccessClaims, bool) {
	claims, ok := ctx.Value(contextKey{}).(token.AccessClaims)
	return claims, ok
}
