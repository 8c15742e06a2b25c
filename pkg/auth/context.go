package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type claimsKey struct{}

// WithClaims attaches the authenticated caller to ctx.
func WithClaims(ctx context.Context, claims *model.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the authenticated caller, if any.
func ClaimsFrom(ctx context.Context) (*model.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*model.TokenClaims)
	return claims, ok && claims != nil
}

// ActorID returns the caller's user id or nil for unauthenticated contexts.
func ActorID(ctx context.Context) *uuid.UUID {
	claims, ok := ClaimsFrom(ctx)
	if !ok {
		return nil
	}
	id := claims.UserID
	return &id
}
