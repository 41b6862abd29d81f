package auth

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/pkg/apperrors"
)

// Role is the marketplace role attached to a profile.
type Role string

const (
	RoleGenerator Role = "generator"
	RoleValidator Role = "validator"
	RoleConsumer  Role = "consumer"
)

// Valid reports whether r is one of the three marketplace roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGenerator, RoleValidator, RoleConsumer:
		return true
	}
	return false
}

// Subject is anything carrying a role, normally a stored profile.
// Implementations must tolerate a nil receiver.
type Subject interface {
	GetRole() Role
}

// Authorize reports whether subject holds the required role. A missing
// subject is never authorized.
func Authorize(subject Subject, required Role) bool {
	if subject == nil {
		return false
	}
	return subject.GetRole() == required
}

// SubjectLookup resolves the role-bearing profile of a user.
type SubjectLookup interface {
	LookupSubject(ctx context.Context, userID uuid.UUID) (Subject, error)
}

// RoleGate enforces role requirements on workflow operations.
type RoleGate struct {
	lookup SubjectLookup
	logger *zap.Logger
}

// NewRoleGate creates a role gate backed by lookup.
func NewRoleGate(lookup SubjectLookup, logger *zap.Logger) *RoleGate {
	return &RoleGate{lookup: lookup, logger: logger}
}

// Require returns an authorization error carrying denial unless the user's
// profile holds role. Lookup failures deny as well.
func (g *RoleGate) Require(ctx context.Context, userID uuid.UUID, role Role, denial string) error {
	subject, err := g.lookup.LookupSubject(ctx, userID)
	if err != nil {
		g.logger.Warn("Role lookup failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return apperrors.Authorization(denial)
	}
	if !Authorize(subject, role) {
		return apperrors.Authorization(denial)
	}
	return nil
}
