package sensordata

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
	"bluechain-mrv/backend/pkg/geospatial"
)

const denyRecord = "Only validators can submit sensor data"

// RoleChecker is satisfied by auth.RoleGate.
type RoleChecker interface {
	Require(ctx context.Context, userID uuid.UUID, role auth.Role, denial string) error
}

type Service struct {
	repo   Repository
	gate   RoleChecker
	rules  []AlertRule
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, gate RoleChecker, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		rules:  DefaultAlertRules(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithAlertRules replaces the default alert thresholds.
func (s *Service) WithAlertRules(rules []AlertRule) *Service {
	s.rules = rules
	return s
}

// RequireRecorder fails unless identity belongs to a validator.
func (s *Service) RequireRecorder(ctx context.Context, identity *auth.Identity) error {
	if identity == nil {
		return apperrors.Authentication("Unauthorized")
	}
	return s.gate.Require(ctx, identity.UserID, auth.RoleValidator, denyRecord)
}

// Record stores a reading attributed to the calling validator. The
// project's status is not affected.
func (s *Service) Record(ctx context.Context, identity *auth.Identity, req *RecordReadingRequest) (*Reading, error) {
	if err := s.RequireRecorder(ctx, identity); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, apperrors.Validation("project_id", "Project ID is required")
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, apperrors.Validation("project_id", "project_id must be a valid UUID")
	}
	for _, m := range req.measurements() {
		if m.value != nil && !geospatial.IsFinite(*m.value) {
			return nil, apperrors.Validationf(m.field, "%s must be a finite number", m.field)
		}
	}

	ownerID, exists, err := s.repo.ProjectOwner(ctx, projectID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if !exists {
		return nil, apperrors.NotFound("Project not found")
	}

	now := s.now()
	recordedAt := now
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	reading := &Reading{
		ID:          uuid.New(),
		ProjectID:   projectID,
		ValidatorID: identity.UserID,
		Temperature: req.Temperature,
		Salinity:    req.Salinity,
		PH:          req.PH,
		DissolvedO2: req.DissolvedO2,
		Turbidity:   req.Turbidity,
		RecordedAt:  recordedAt,
		CreatedAt:   now,
	}
	alerts := EvaluateAlerts(s.rules, reading)
	if err := s.repo.CreateReading(ctx, reading, ownerID, alerts); err != nil {
		return nil, apperrors.Store(err)
	}
	if len(alerts) > 0 {
		s.logger.Warn("Sensor reading breached thresholds",
			zap.String("project_id", projectID.String()),
			zap.Int("alerts", len(alerts)))
	}

	s.logger.Info("Sensor reading recorded",
		zap.String("project_id", projectID.String()),
		zap.String("validator_id", identity.UserID.String()))
	return reading, nil
}

// List returns a project's readings, newest first.
func (s *Service) List(ctx context.Context, projectID uuid.UUID, limit int) ([]Reading, error) {
	readings, err := s.repo.ListReadings(ctx, projectID, limit)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return readings, nil
}
