package projects

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/pkg/apperrors"
	"bluechain-mrv/backend/pkg/geospatial"
	"bluechain-mrv/backend/pkg/workflows"
)

const (
	denySubmit = "Only generators can submit projects"
	denyDecide = "Only validators can validate projects"

	missingFields = "Missing required fields"
)

// RoleChecker is satisfied by auth.RoleGate.
type RoleChecker interface {
	Require(ctx context.Context, userID uuid.UUID, role auth.Role, denial string) error
}

// Service implements the project lifecycle: generators submit projects and
// validators move them through review to a verified or rejected decision.
type Service struct {
	repo         Repository
	gate         RoleChecker
	stateMachine *workflows.StateMachine
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(repo Repository, gate RoleChecker, stateMachine *workflows.StateMachine, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		gate:         gate,
		stateMachine: stateMachine,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RequireSubmitter fails unless identity belongs to a generator. Handlers
// call it before decoding the request body.
func (s *Service) RequireSubmitter(ctx context.Context, identity *auth.Identity) error {
	if identity == nil {
		return apperrors.Authentication("Unauthorized")
	}
	return s.gate.Require(ctx, identity.UserID, auth.RoleGenerator, denySubmit)
}

// RequireDecider fails unless identity belongs to a validator.
func (s *Service) RequireDecider(ctx context.Context, identity *auth.Identity) error {
	if identity == nil {
		return apperrors.Authentication("Unauthorized")
	}
	return s.gate.Require(ctx, identity.UserID, auth.RoleValidator, denyDecide)
}

// Submit creates a project owned by the calling generator in status
// submitted. Identical payloads create distinct projects.
func (s *Service) Submit(ctx context.Context, identity *auth.Identity, req *SubmitProjectRequest) (*Project, error) {
	if err := s.RequireSubmitter(ctx, identity); err != nil {
		return nil, err
	}
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	photos := req.PhotoURLs
	if photos == nil {
		photos = []string{}
	}

	now := s.now()
	project := &Project{
		ID:        uuid.New(),
		UserID:    identity.UserID,
		Name:      strings.TrimSpace(req.Name),
		Hectares:  *req.Hectares,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   req.Address,
		PhotoURLs: photos,
		VideoURL:  req.VideoURL,
		Status:    workflows.StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	change := &StatusChange{
		ID:        uuid.New(),
		ProjectID: project.ID,
		ToStatus:  workflows.StatusSubmitted,
		ChangedBy: identity.UserID,
		ChangedAt: now,
	}

	if err := s.repo.CreateSubmitted(ctx, project, change); err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Info("Project submitted",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", identity.UserID.String()),
		zap.Float64("hectares", project.Hectares))
	return project, nil
}

func validateSubmission(req *SubmitProjectRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.Validation("name", missingFields)
	}
	if req.Hectares == nil {
		return apperrors.Validation("hectares", missingFields)
	}
	if !geospatial.IsFinite(*req.Hectares) || *req.Hectares <= 0 {
		return apperrors.Validation("hectares", "hectares must be a positive number")
	}
	if req.Latitude == nil || req.Longitude == nil {
		field := "latitude"
		if req.Latitude != nil {
			field = "longitude"
		}
		return apperrors.Validation(field, missingFields)
	}
	if _, err := geospatial.NewPoint(*req.Latitude, *req.Longitude); err != nil {
		return apperrors.Validation("latitude", "latitude and longitude must be finite numbers")
	}
	return nil
}

// Decide records a validator's decision on a project.
func (s *Service) Decide(ctx context.Context, identity *auth.Identity, req *DecideRequest) (*Project, error) {
	if err := s.RequireDecider(ctx, identity); err != nil {
		return nil, err
	}

	projectID, err := s.validateDecision(req)
	if err != nil {
		return nil, err
	}

	var fromStatus string
	project, err := s.repo.ApplyDecision(ctx, projectID, func(p *Project) (*StatusChange, error) {
		fromStatus = p.Status
		if !s.stateMachine.CanTransition(p.Status, req.Status) {
			return nil, apperrors.Validationf("status", "cannot change project status from %s to %s", p.Status, req.Status)
		}

		now := s.now()
		validatorID := identity.UserID
		p.Status = req.Status
		p.ValidatorID = &validatorID
		if req.ValidatorNotes != nil {
			p.ValidatorNotes = req.ValidatorNotes
		}
		if req.Status == workflows.StatusVerified {
			p.VerifiedAt = &now
			if req.CO2Tons != nil {
				tons := *req.CO2Tons
				p.CO2Tons = &tons
			}
		}
		p.UpdatedAt = now

		return &StatusChange{
			ID:         uuid.New(),
			ProjectID:  p.ID,
			FromStatus: fromStatus,
			ToStatus:   req.Status,
			ChangedBy:  validatorID,
			Notes:      req.ValidatorNotes,
			ChangedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Info("Project decided",
		zap.String("project_id", project.ID.String()),
		zap.String("validator_id", identity.UserID.String()),
		zap.String("from_status", fromStatus),
		zap.String("to_status", project.Status))
	return project, nil
}

func (s *Service) validateDecision(req *DecideRequest) (uuid.UUID, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return uuid.Nil, apperrors.Validation("project_id", missingFields)
	}
	if strings.TrimSpace(req.Status) == "" {
		return uuid.Nil, apperrors.Validation("status", missingFields)
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return uuid.Nil, apperrors.Validation("project_id", "project_id must be a valid UUID")
	}

	valid := false
	for _, status := range workflows.DecisionStatuses() {
		if req.Status == status {
			valid = true
			break
		}
	}
	if !valid {
		return uuid.Nil, apperrors.Validationf("status", "status must be one of %s", strings.Join(workflows.DecisionStatuses(), ", "))
	}

	if req.CO2Tons != nil && (!geospatial.IsFinite(*req.CO2Tons) || *req.CO2Tons <= 0) {
		return uuid.Nil, apperrors.Validation("co2_tons", "co2_tons must be a positive number")
	}
	return projectID, nil
}

// Reads

func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project not found")
	}
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	if filter.Status != nil && !s.stateMachine.IsKnown(*filter.Status) {
		return nil, apperrors.Validationf("status", "unknown status %s", *filter.Status)
	}
	projects, err := s.repo.ListProjects(ctx, filter)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return projects, nil
}

// ListMine lists the caller's own projects, newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, filter ProjectFilter) ([]Project, error) {
	filter.UserID = &userID
	return s.ListProjects(ctx, filter)
}

// History returns the status changes of a project, oldest first.
func (s *Service) History(ctx context.Context, projectID uuid.UUID) ([]StatusChange, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	changes, err := s.repo.ListStatusChanges(ctx, projectID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return changes, nil
}

// Map renders the listed projects as GeoJSON point features.
func (s *Service) Map(ctx context.Context, filter ProjectFilter) (*geojson.FeatureCollection, error) {
	projects, err := s.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for i := range projects {
		p := &projects[i]
		props := map[string]interface{}{
			"id":       p.ID.String(),
			"name":     p.Name,
			"status":   p.Status,
			"hectares": p.Hectares,
		}
		if p.CO2Tons != nil {
			props["co2_tons"] = *p.CO2Tons
		}
		fc.Append(geospatial.PointFeature(p.Latitude, p.Longitude, props))
	}
	return fc, nil
}
