package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bluechain-mrv/backend/internal/outbox"
	"bluechain-mrv/backend/pkg/apperrors"
)

// DecisionFunc mutates a locked project and returns the transition to record.
type DecisionFunc func(project *Project) (*StatusChange, error)

// Repository persists projects. Every write commits together with its
// status change row and outbox events.
type Repository interface {
	CreateSubmitted(ctx context.Context, project *Project, change *StatusChange) error
	ApplyDecision(ctx context.Context, projectID uuid.UUID, decide DecisionFunc) (*Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	ListStatusChanges(ctx context.Context, projectID uuid.UUID) ([]StatusChange, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateSubmitted(ctx context.Context, project *Project, change *StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if err := tx.Create(change).Error; err != nil {
			return err
		}
		event := ProjectEvent{Project: project, FromStatus: change.FromStatus, ToStatus: change.ToStatus}
		return outbox.Enqueue(tx, outbox.EventProjectSubmitted, event, outbox.ProjectTopics(project.ID, project.UserID)...)
	})
}

// ApplyDecision locks the project row for the duration of decide so that
// concurrent decisions are serialised.
func (r *gormRepository) ApplyDecision(ctx context.Context, projectID uuid.UUID, decide DecisionFunc) (*Project, error) {
	var project Project

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", projectID).
			Take(&project).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Project not found")
		}
		if err != nil {
			return err
		}

		change, err := decide(&project)
		if err != nil {
			return err
		}

		if err := tx.Save(&project).Error; err != nil {
			return err
		}
		if err := tx.Create(change).Error; err != nil {
			return err
		}
		event := ProjectEvent{Project: &project, FromStatus: change.FromStatus, ToStatus: change.ToStatus}
		return outbox.Enqueue(tx, outbox.EventProjectStatusChanged, event, outbox.ProjectTopics(project.ID, project.UserID)...)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject returns nil without error when the project does not exist.
func (r *gormRepository) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *gormRepository) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	filter.normalize()

	query := r.db.WithContext(ctx).Model(&Project{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	projects := []Project{}
	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&projects).Error
	return projects, err
}

func (r *gormRepository) ListStatusChanges(ctx context.Context, projectID uuid.UUID) ([]StatusChange, error) {
	changes := []StatusChange{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("changed_at ASC").
		Find(&changes).Error
	return changes, err
}
