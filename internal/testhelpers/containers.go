// Package testhelpers starts the shared Postgres container used by the
// integration tests. Tests using it are built with the integration tag.
package testhelpers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/config"
	"bluechain-mrv/backend/internal/database"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "bluechain"
	postgresPassword = "test_password"
	postgresDB       = "bluechain_test"
)

// TestDB is a migrated database shared by every test in the run.
type TestDB struct {
	Container testcontainers.Container
	DB        *database.DB
	Config    config.DatabaseConfig
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns the shared database, starting the container and applying
// migrations on first use.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       postgresDB,
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
		},
		// the server restarts once after initdb
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg := config.DatabaseConfig{
		Host:           host,
		Port:           port.Int(),
		User:           postgresUser,
		Password:       postgresPassword,
		DBName:         postgresDB,
		SSLMode:        "disable",
		MaxConnections: 10,
		MaxIdleConns:   2,
		MaxLifetime:    time.Minute,
	}

	if err := database.RunMigrations(cfg.GetDatabaseURL(), MigrationsPath(), zap.NewNop()); err != nil {
		return nil, err
	}

	db, err := database.Connect(&cfg, zap.NewNop())
	if err != nil {
		return nil, err
	}

	return &TestDB{Container: container, DB: db, Config: cfg}, nil
}

// MigrationsPath locates the repository's migrations directory.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// Truncate empties every application table.
func (db *TestDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := db.DB.SQLX.Exec(`TRUNCATE outbox_events, purchases, transactions, assets, wallets,
		sensor_data, project_status_changes, projects, profiles RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}
