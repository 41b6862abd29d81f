package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the session token claims issued by the identity provider.
// The subject is the user id; role is not trusted from the token and is
// always resolved from the profile store.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

func (c *Claims) identity() (*Identity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: id, Email: c.Email}, nil
}
