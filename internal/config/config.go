package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Security SecurityConfig `json:"security"`
	Workflow WorkflowConfig `json:"workflow"`
	Realtime RealtimeConfig `json:"realtime"`
	NATS     NATSConfig     `json:"nats"`
	Storage  StorageConfig  `json:"storage"`
	Sensors  SensorConfig   `json:"sensors"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         int           `json:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `json:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host" env:"DATABASE_HOST" env-default:"localhost"`
	Port           int           `json:"port" env:"DATABASE_PORT" env-default:"5432"`
	User           string        `json:"user" env:"DATABASE_USER" env-default:"postgres"`
	Password       string        `json:"password" env:"DATABASE_PASSWORD"`
	DBName         string        `json:"db_name" env:"DATABASE_DBNAME" env-default:"bluechain_mrv"`
	SSLMode        string        `json:"ssl_mode" env:"DATABASE_SSLMODE" env-default:"disable"`
	MaxConnections int           `json:"max_connections" env:"DATABASE_MAX_CONNECTIONS" env-default:"25"`
	MaxIdleConns   int           `json:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS" env-default:"5"`
	MaxLifetime    time.Duration `json:"max_lifetime" env:"DATABASE_MAX_LIFETIME" env-default:"30m"`
	MigrationsPath string        `json:"migrations_path" env:"DATABASE_MIGRATIONS_PATH" env-default:"migrations"`
}

// SecurityConfig controls session verification. Sessions are HS256 tokens
// signed with JWTSecret, or RS256/ES256 tokens checked against JWKSURL when set.
type SecurityConfig struct {
	JWTSecret   string `json:"jwt_secret" env:"JWT_SECRET"`
	JWKSURL     string `json:"jwks_url" env:"JWKS_URL"`
	JWTIssuer   string `json:"jwt_issuer" env:"JWT_ISSUER"`
	JWTAudience string `json:"jwt_audience" env:"JWT_AUDIENCE" env-default:"authenticated"`
}

// WorkflowConfig tunes the project lifecycle.
type WorkflowConfig struct {
	// AllowRedecision lets validators decide verified/rejected projects again.
	AllowRedecision bool `json:"allow_redecision" env:"WORKFLOW_ALLOW_REDECISION" env-default:"true"`
}

// RealtimeConfig tunes the outbox relay and the subscriber hub.
type RealtimeConfig struct {
	RelaySchedule    string `json:"relay_schedule" env:"REALTIME_RELAY_SCHEDULE" env-default:"@every 2s"`
	RelayBatchSize   int    `json:"relay_batch_size" env:"REALTIME_RELAY_BATCH_SIZE" env-default:"100"`
	SubscriberBuffer int    `json:"subscriber_buffer" env:"REALTIME_SUBSCRIBER_BUFFER" env-default:"64"`

	// Published outbox rows older than OutboxRetention are deleted by the
	// worker every PruneInterval.
	OutboxRetention time.Duration `json:"outbox_retention" env:"REALTIME_OUTBOX_RETENTION" env-default:"168h"`
	PruneInterval   time.Duration `json:"prune_interval" env:"REALTIME_PRUNE_INTERVAL" env-default:"1h"`
}

// NATSConfig enables the cross-instance event bridge when URL is set.
type NATSConfig struct {
	URL     string `json:"url" env:"NATS_URL"`
	Subject string `json:"subject" env:"NATS_SUBJECT" env-default:"bluechain.events"`
}

// StorageConfig points at the S3-compatible media store.
type StorageConfig struct {
	Endpoint        string `json:"endpoint" env:"STORAGE_ENDPOINT"`
	Region          string `json:"region" env:"STORAGE_REGION" env-default:"us-east-1"`
	AccessKeyID     string `json:"access_key_id" env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" env:"STORAGE_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `json:"public_base_url" env:"STORAGE_PUBLIC_BASE_URL"`
	ForcePathStyle  bool   `json:"force_path_style" env:"STORAGE_FORCE_PATH_STYLE" env-default:"true"`
	PhotoBucket     string `json:"photo_bucket" env:"STORAGE_PHOTO_BUCKET" env-default:"project-photos"`
	VideoBucket     string `json:"video_bucket" env:"STORAGE_VIDEO_BUCKET" env-default:"project-videos"`
	DocumentBucket  string `json:"document_bucket" env:"STORAGE_DOCUMENT_BUCKET" env-default:"documents"`
}

// SensorConfig overrides the built-in water-quality alert thresholds.
// Rules can only be set from the config file.
type SensorConfig struct {
	AlertRules []AlertRuleConfig `json:"alert_rules"`
}

// AlertRuleConfig is one threshold; Operator is "greater_than" or "less_than".
type AlertRuleConfig struct {
	Field     string  `json:"field"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
	Severity  string  `json:"severity"`
}

// LoggingConfig selects the zap level and encoder ("json" or "console").
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" env-default:"json"`
}

// BuildLogger creates the process logger: JSON production encoding by
// default, or the human-readable development encoder for format "console".
func (c *LoggingConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	zapConfig := zap.NewProductionConfig()
	if c.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}

// LoadConfig loads configuration from file and environment variables.
// A missing file is not an error; environment variables and defaults apply.
// Variables from a .env file in the working directory are loaded first.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			return config, config.Validate()
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return config, config.Validate()
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" && c.Security.JWKSURL == "" {
		return errors.New("one of security.jwt_secret or security.jwks_url is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// GetDatabaseURL returns the database connection string with credentials
// escaped.
func (c *DatabaseConfig) GetDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
