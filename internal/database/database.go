package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bluechain-mrv/backend/internal/config"
)

// DB bundles the two access paths onto one connection pool: sqlx for
// hand-written queries and gorm for the transactional repositories.
type DB struct {
	SQLX *sqlx.DB
	Gorm *gorm.DB
}

// Connect opens the pool described by cfg and verifies it with a ping.
func Connect(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	logger.Info("Connecting to database",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db_name", cfg.DBName),
	)

	sqlxDB, err := sqlx.Connect("postgres", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.MaxLifetime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &DB{SQLX: sqlxDB, Gorm: gormDB}, nil
}

// Close releases the shared pool.
func (d *DB) Close() error {
	return d.SQLX.Close()
}
