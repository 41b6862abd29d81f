package certificates

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/projects"
	"bluechain-mrv/backend/pkg/apperrors"
	"bluechain-mrv/backend/pkg/workflows"
)

// ProjectSource is satisfied by projects.Service.
type ProjectSource interface {
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
}

type Service struct {
	projects  ProjectSource
	generator *Generator
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(source ProjectSource, generator *Generator, logger *zap.Logger) *Service {
	return &Service{
		projects:  source,
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Issue renders the certificate of a verified project.
func (s *Service) Issue(ctx context.Context, projectID uuid.UUID) ([]byte, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != workflows.StatusVerified || project.VerifiedAt == nil {
		return nil, apperrors.Validation("status", "Certificates are only issued for verified projects")
	}

	cert := &Certificate{
		ProjectID:   project.ID.String(),
		ProjectName: project.Name,
		Hectares:    project.Hectares,
		Latitude:    project.Latitude,
		Longitude:   project.Longitude,
		CO2Tons:     project.CO2Tons,
		VerifiedAt:  *project.VerifiedAt,
		IssuedAt:    s.now(),
	}
	if project.Address != nil {
		cert.Address = *project.Address
	}
	if project.ValidatorID != nil {
		cert.ValidatorID = project.ValidatorID.String()
	}
	if project.ValidatorNotes != nil {
		cert.Notes = *project.ValidatorNotes
	}

	var buf bytes.Buffer
	if err := s.generator.Render(&buf, cert); err != nil {
		s.logger.Error("Failed to render certificate", zap.String("project_id", projectID.String()), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return buf.Bytes(), nil
}
