package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware authenticates requests with bearer session tokens.
type Middleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(verifier TokenVerifier, logger *zap.Logger) *Middleware {
	return &Middleware{verifier: verifier, logger: logger}
}

// RequireAuth rejects requests without a valid session token with 401 and
// otherwise stores the caller's Identity in both the gin and request contexts.
// The token is read from the Authorization header, or from the access_token
// query parameter for websocket upgrades where browsers cannot set headers.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.Request)
		if token == "" {
			m.unauthorized(c, "missing bearer token")
			return
		}

		identity, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("Rejected session token", zap.Error(err))
			m.unauthorized(c, "invalid session")
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

func (m *Middleware) unauthorized(c *gin.Context, reason string) {
	m.logger.Debug("Unauthorized request",
		zap.String("path", c.Request.URL.Path),
		zap.String("reason", reason),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
