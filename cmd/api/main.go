package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/certificates"
	"bluechain-mrv/backend/internal/config"
	"bluechain-mrv/backend/internal/database"
	"bluechain-mrv/backend/internal/httpapi"
	"bluechain-mrv/backend/internal/media"
	"bluechain-mrv/backend/internal/outbox"
	"bluechain-mrv/backend/internal/profiles"
	"bluechain-mrv/backend/internal/projects"
	"bluechain-mrv/backend/internal/realtime"
	"bluechain-mrv/backend/internal/sensordata"
	"bluechain-mrv/backend/internal/wallet"
	"bluechain-mrv/backend/pkg/storage"
	"bluechain-mrv/backend/pkg/workflows"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := migrate(&cfg.Database, logger); err != nil {
		return err
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	verifier, err := auth.NewJWTVerifier(ctx, &cfg.Security)
	if err != nil {
		return err
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3Options{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		ForcePathStyle:  cfg.Storage.ForcePathStyle,
	})
	if err != nil {
		return err
	}

	// Realtime: the relay feeds the local hub directly, or NATS when
	// configured so that every instance's hub sees every event.
	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer, logger)
	defer hub.Close()

	var publisher outbox.Publisher = hub
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("bluechain-api"))
		if err != nil {
			return err
		}
		defer nc.Drain()

		bridge, err := realtime.NewBridge(nc, cfg.NATS.Subject, hub, logger)
		if err != nil {
			return err
		}
		defer bridge.Close()
		publisher = realtime.NewNATSPublisher(nc, cfg.NATS.Subject)
		logger.Info("Realtime events bridged through NATS", zap.String("subject", cfg.NATS.Subject))
	}

	relay := outbox.NewRelay(outbox.NewStore(db.Gorm), publisher, logger, outbox.RelayConfig{
		Schedule:  cfg.Realtime.RelaySchedule,
		BatchSize: cfg.Realtime.RelayBatchSize,
	})
	if err := relay.Start(ctx); err != nil {
		return err
	}
	defer relay.Stop()

	// Services
	profilesService := profiles.NewService(profiles.NewRepository(db.SQLX), logger)
	gate := auth.NewRoleGate(profilesService, logger)

	projectsService := projects.NewService(projects.NewRepository(db.Gorm), gate,
		workflows.NewStateMachine(cfg.Workflow.AllowRedecision), logger)
	sensorService := sensordata.NewService(sensordata.NewRepository(db.Gorm), gate, logger)
	if rules := alertRules(cfg.Sensors); len(rules) > 0 {
		sensorService.WithAlertRules(rules)
		logger.Info("Using configured sensor alert rules", zap.Int("rules", len(rules)))
	}
	walletService := wallet.NewService(wallet.NewRepository(db.Gorm), logger)
	mediaService := media.NewService(s3Client, media.Buckets{
		Photo:    cfg.Storage.PhotoBucket,
		Video:    cfg.Storage.VideoBucket,
		Document: cfg.Storage.DocumentBucket,
	}, logger)
	certificateService := certificates.NewService(projectsService,
		certificates.NewGenerator(certificates.DefaultPDFOptions()), logger)

	// Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), httpapi.CORS(), httpapi.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	api := router.Group("/api/v1")
	api.Use(auth.NewMiddleware(verifier, logger).RequireAuth())
	{
		profiles.NewHandler(profilesService, logger).RegisterRoutes(api)
		projects.NewHandler(projectsService, logger).RegisterRoutes(api)
		sensordata.NewHandler(sensorService, logger).RegisterRoutes(api)
		wallet.NewHandler(walletService, logger).RegisterRoutes(api)
		media.NewHandler(mediaService, logger).RegisterRoutes(api)
		certificates.NewHandler(certificateService, logger).RegisterRoutes(api)
		realtime.NewHandler(hub, walletService, logger).RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("Server started", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// migrate applies pending migrations unless migrations_path is empty.
func migrate(cfg *config.DatabaseConfig, logger *zap.Logger) error {
	if cfg.MigrationsPath == "" {
		logger.Info("Skipping migrations: database.migrations_path is empty")
		return nil
	}
	return database.RunMigrations(cfg.GetDatabaseURL(), cfg.MigrationsPath, logger)
}

func alertRules(cfg config.SensorConfig) []sensordata.AlertRule {
	rules := make([]sensordata.AlertRule, 0, len(cfg.AlertRules))
	for _, r := range cfg.AlertRules {
		rules = append(rules, sensordata.AlertRule{
			Field:     r.Field,
			Operator:  r.Operator,
			Threshold: r.Threshold,
			Severity:  r.Severity,
		})
	}
	return rules
}
