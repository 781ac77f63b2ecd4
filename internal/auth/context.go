package auth

import (
	"context"

	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
)

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}
