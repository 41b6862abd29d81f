// Command workers runs the outbox relay and pruner outside the API process.
// It publishes to NATS, which every API instance bridges into its hub.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/config"
	"bluechain-mrv/backend/internal/database"
	"bluechain-mrv/backend/internal/outbox"
	"bluechain-mrv/backend/internal/realtime"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := cfg.Logging.BuildLogger()
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	if cfg.NATS.URL == "" {
		logger.Fatal("nats.url is required for the standalone relay")
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("bluechain-workers"))
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Drain()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay := outbox.NewRelay(outbox.NewStore(db.Gorm), realtime.NewNATSPublisher(nc, cfg.NATS.Subject), logger, outbox.RelayConfig{
		Schedule:  cfg.Realtime.RelaySchedule,
		BatchSize: cfg.Realtime.RelayBatchSize,
	})
	if err := relay.Start(ctx); err != nil {
		logger.Fatal("Failed to start relay", zap.Error(err))
	}
	defer relay.Stop()

	pruneConfig := DefaultOutboxPrunerConfig()
	if cfg.Realtime.PruneInterval > 0 {
		pruneConfig.Interval = cfg.Realtime.PruneInterval
	}
	if cfg.Realtime.OutboxRetention > 0 {
		pruneConfig.Retention = cfg.Realtime.OutboxRetention
	}
	pruner := NewOutboxPruner(db.SQLX, logger, pruneConfig)

	logger.Info("Workers started", zap.String("subject", cfg.NATS.Subject))
	if err := pruner.Start(ctx); err != nil {
		logger.Error("Pruner error", zap.Error(err))
	}
	logger.Info("Workers stopped")
}
