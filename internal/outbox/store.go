package outbox

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store hands pending events to the relay.
type Store interface {
	// ProcessPending locks up to limit unpublished events, oldest first,
	// calls publish for each and records the outcome before committing.
	// Rows locked by another relay are skipped.
	ProcessPending(ctx context.Context, limit int, publish func(*Event) error) (published, failed int, err error)
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) ProcessPending(ctx context.Context, limit int, publish func(*Event) error) (int, int, error) {
	var published, failed int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var events []Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("published_at IS NULL").
			Order("id").
			Limit(limit).
			Find(&events).Error
		if err != nil {
			return err
		}

		for i := range events {
			ev := &events[i]
			if pubErr := publish(ev); pubErr != nil {
				failed++
				msg := pubErr.Error()
				if err := tx.Model(ev).Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": msg,
				}).Error; err != nil {
					return err
				}
				continue
			}

			published++
			if err := tx.Model(ev).Update("published_at", time.Now().UTC()).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return published, failed, nil
}
