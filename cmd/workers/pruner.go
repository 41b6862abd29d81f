package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// OutboxPruner deletes published outbox events past their retention.
type OutboxPruner struct {
	db     *sqlx.DB
	logger *zap.Logger
	config OutboxPrunerConfig
}

// OutboxPrunerConfig configuration for the outbox pruner
type OutboxPrunerConfig struct {
	Interval  time.Duration
	Retention time.Duration
	BatchSize int
}

func DefaultOutboxPrunerConfig() OutboxPrunerConfig {
	return OutboxPrunerConfig{
		Interval:  time.Hour,
		Retention: 7 * 24 * time.Hour,
		BatchSize: 1000,
	}
}

func NewOutboxPruner(db *sqlx.DB, logger *zap.Logger, config OutboxPrunerConfig) *OutboxPruner {
	return &OutboxPruner{
		db:     db,
		logger: logger,
		config: config,
	}
}

// Start prunes immediately and then on every tick until ctx is cancelled.
func (p *OutboxPruner) Start(ctx context.Context) error {
	p.logger.Info("Starting outbox pruner",
		zap.Duration("interval", p.config.Interval),
		zap.Duration("retention", p.config.Retention))

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox pruner shutting down")
			return nil
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

// prune deletes in batches so a large backlog does not hold one long lock.
func (p *OutboxPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.config.Retention)
	total := int64(0)

	for {
		n, err := p.deleteBatch(ctx, cutoff)
		if err != nil {
			p.logger.Error("Failed to prune outbox events", zap.Error(err))
			return
		}
		total += n
		if n < int64(p.config.BatchSize) {
			break
		}
	}

	if total > 0 {
		p.logger.Info("Pruned outbox events", zap.Int64("count", total), zap.Time("cutoff", cutoff))
	}
}

func (p *OutboxPruner) deleteBatch(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE published_at IS NOT NULL AND published_at < $1
			ORDER BY id
			LIMIT $2
		)
	`
	result, err := p.db.ExecContext(ctx, query, cutoff, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to delete outbox events: %w", err)
	}
	return result.RowsAffected()
}
