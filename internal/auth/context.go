package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"bluechain-mrv/backend/pkg/apperrors"
)

type contextKey struct{}

// identityKey is the gin context key the middleware stores the caller under.
const identityKey = "auth.identity"

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext returns the caller stored by the middleware, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(*Identity)
	return identity, ok && identity != nil
}

// RequireIdentity returns the caller or an authentication error.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, apperrors.Authentication("Unauthorized")
	}
	return identity, nil
}

// CurrentIdentity reads the caller from a gin context.
func CurrentIdentity(c *gin.Context) (*Identity, error) {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(*Identity); ok && identity != nil {
			return identity, nil
		}
	}
	return RequireIdentity(c.Request.Context())
}
