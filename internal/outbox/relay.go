package outbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Publisher delivers a message to subscribers: the in-process hub or a
// message broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// RelayConfig tunes the relay.
type RelayConfig struct {
	Schedule  string
	BatchSize int
}

// Relay moves committed events from the outbox to a Publisher on a cron
// schedule. Delivery is at-least-once: an event whose publish succeeded
// but whose bookkeeping failed is sent again on the next run.
type Relay struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
	config    RelayConfig

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewRelay(store Store, publisher Publisher, logger *zap.Logger, config RelayConfig) *Relay {
	if config.Schedule == "" {
		config.Schedule = "@every 2s"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		config:    config,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// RunOnce publishes one batch of pending events.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	published, failed, err := r.store.ProcessPending(ctx, r.config.BatchSize, func(ev *Event) error {
		return r.publisher.Publish(ctx, ev.Message())
	})
	if err != nil {
		return 0, fmt.Errorf("failed to relay outbox events: %w", err)
	}
	if failed > 0 {
		r.logger.Warn("Some outbox events failed to publish",
			zap.Int("published", published),
			zap.Int("failed", failed))
	} else if published > 0 {
		r.logger.Debug("Relayed outbox events", zap.Int("published", published))
	}
	return published, nil
}

// Start schedules RunOnce until Stop is called or ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("outbox relay already running")
	}
	ctx, cancel := context.WithCancel(ctx)

	_, err := r.cron.AddFunc(r.config.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("Outbox relay run failed", zap.Error(err))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid relay schedule %q: %w", r.config.Schedule, err)
	}

	r.logger.Info("Starting outbox relay",
		zap.String("schedule", r.config.Schedule),
		zap.Int("batch_size", r.config.BatchSize))
	r.cron.Start()
	r.running = true
	r.cancel = cancel

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running batch to finish.
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}

	r.logger.Info("Stopping outbox relay")
	r.cancel()
	<-r.cron.Stop().Done()
	r.running = false
}
