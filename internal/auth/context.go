package auth

import (
	"context"

	"github.com/evalia-ai/evalia/pkg/competitions"
)

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
)

// WithUser returns a context carrying the authenticated user and claims.
func WithUser(ctx context.Context, u *competitions.User, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, claimsKey, claims)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *competitions.User {
	u, _ := ctx.Value(userKey).(*competitions.User)
	return u
}

// ClaimsFrom returns the claims of the request token, if any.
func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
