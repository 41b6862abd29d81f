package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"bluechain-mrv/backend/internal/config"
)

// TokenVerifier turns a bearer token into an Identity.
type TokenVerifier interface {
	Verify(tokenString string) (*Identity, error)
}

// JWTVerifier validates session tokens either with a shared HS256 secret
// or against the keys published at a JWKS endpoint.
type JWTVerifier struct {
	secret []byte
	jwks   keyfunc.Keyfunc
	parser *jwt.Parser
}

// NewJWTVerifier builds a verifier from the security settings. When a JWKS
// URL is configured the key set is fetched up front and refreshed in the
// background for the lifetime of ctx.
func NewJWTVerifier(ctx context.Context, cfg *config.SecurityConfig) (*JWTVerifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	v := &JWTVerifier{secret: []byte(cfg.JWTSecret)}

	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		v.jwks = jwks
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "ES256"}))
	} else {
		if len(v.secret) == 0 {
			return nil, errors.New("jwt secret is required when no JWKS URL is configured")
		}
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
	}

	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Verify validates the token signature and claims and returns the caller.
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	identity, err := claims.identity()
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return identity, nil
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if v.jwks != nil {
		return v.jwks.Keyfunc(token)
	}
	return v.secret, nil
}

var _ TokenVerifier = (*JWTVerifier)(nil)
