package profiles

import (
	"time"

	"github.com/google/uuid"

	"bluechain-mrv/backend/internal/auth"
)

// Verification statuses of an organization profile.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Profile is the marketplace identity of a user. The id equals the session
// subject and the role never changes after creation.
type Profile struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Role               auth.Role `json:"role" db:"role"`
	OrganizationName   string    `json:"organization_name" db:"organization_name"`
	RegistrationNumber *string   `json:"registration_number,omitempty" db:"registration_number"`
	Email              string    `json:"email" db:"email"`
	VerificationStatus string    `json:"verification_status" db:"verification_status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// GetRole implements auth.Subject.
func (p *Profile) GetRole() auth.Role {
	if p == nil {
		return ""
	}
	return p.Role
}

// CreateProfileRequest is sent once at sign-up.
type CreateProfileRequest struct {
	Role               auth.Role `json:"role"`
	OrganizationName   string    `json:"organization_name"`
	RegistrationNumber *string   `json:"registration_number"`
	Email              string    `json:"email"`
}

// UpdateProfileRequest changes the organization details. Role and
// verification status are not client-writable.
type UpdateProfileRequest struct {
	OrganizationName   *string `json:"organization_name"`
	RegistrationNumber *string `json:"registration_number"`
}
