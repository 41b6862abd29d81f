package sensordata

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bluechain-mrv/backend/internal/outbox"
)

type Repository interface {
	ProjectOwner(ctx context.Context, projectID uuid.UUID) (uuid.UUID, bool, error)
	CreateReading(ctx context.Context, reading *Reading, ownerID uuid.UUID, alerts []Alert) error
	ListReadings(ctx context.Context, projectID uuid.UUID, limit int) ([]Reading, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ProjectOwner reports whether the project exists and who owns it.
func (r *gormRepository) ProjectOwner(ctx context.Context, projectID uuid.UUID) (uuid.UUID, bool, error) {
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("projects").
		Where("id = ?", projectID).
		Limit(1).
		Pluck("user_id", &owners).Error
	if err != nil || len(owners) == 0 {
		return uuid.Nil, false, err
	}
	return owners[0], true, nil
}

// CreateReading stores the reading and its events in one transaction. An
// alert event is added when the reading breached any threshold.
func (r *gormRepository) CreateReading(ctx context.Context, reading *Reading, ownerID uuid.UUID, alerts []Alert) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reading).Error; err != nil {
			return err
		}
		topics := outbox.ProjectTopics(reading.ProjectID, ownerID)
		if err := outbox.Enqueue(tx, outbox.EventSensorDataRecorded, reading, topics...); err != nil {
			return err
		}
		if len(alerts) == 0 {
			return nil
		}
		return outbox.Enqueue(tx, outbox.EventSensorDataAlert, AlertEvent{Reading: reading, Alerts: alerts}, topics...)
	})
}

// ListReadings returns the newest readings first. A non-positive limit
// returns all of them.
func (r *gormRepository) ListReadings(ctx context.Context, projectID uuid.UUID, limit int) ([]Reading, error) {
	readings := []Reading{}
	query := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&readings).Error
	return readings, err
}
