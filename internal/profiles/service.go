package profiles

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateProfile registers the caller's profile. A user has at most one.
func (s *Service) CreateProfile(ctx context.Context, identity *auth.Identity, req *CreateProfileRequest) (*Profile, error) {
	if !req.Role.Valid() {
		return nil, apperrors.Validation("role", "role must be one of generator, validator, consumer")
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		return nil, apperrors.Validation("organization_name", "organization_name is required")
	}

	existing, err := s.repo.GetProfileByID(ctx, identity.UserID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if existing != nil {
		return nil, apperrors.Validation("id", "profile already exists")
	}

	email := req.Email
	if email == "" {
		email = identity.Email
	}

	now := time.Now().UTC()
	profile := &Profile{
		ID:                 identity.UserID,
		Role:               req.Role,
		OrganizationName:   strings.TrimSpace(req.OrganizationName),
		RegistrationNumber: req.RegistrationNumber,
		Email:              email,
		VerificationStatus: VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Info("Profile created",
		zap.String("user_id", profile.ID.String()),
		zap.String("role", string(profile.Role)),
	)
	return profile, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	profile, err := s.repo.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("Profile not found")
	}
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.OrganizationName != nil {
		name := strings.TrimSpace(*req.OrganizationName)
		if name == "" {
			return nil, apperrors.Validation("organization_name", "organization_name cannot be blank")
		}
		profile.OrganizationName = name
	}
	if req.RegistrationNumber != nil {
		profile.RegistrationNumber = req.RegistrationNumber
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, apperrors.Store(err)
	}
	return profile, nil
}

// LookupSubject implements auth.SubjectLookup for the role gate.
func (s *Service) LookupSubject(ctx context.Context, userID uuid.UUID) (auth.Subject, error) {
	profile, err := s.repo.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	return profile, nil
}

var _ auth.SubjectLookup = (*Service)(nil)
