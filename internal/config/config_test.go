package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "bluechain_mrv", cfg.Database.DBName)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Workflow.AllowRedecision)
	assert.Equal(t, "@every 2s", cfg.Realtime.RelaySchedule)
	assert.Equal(t, 7*24*time.Hour, cfg.Realtime.OutboxRetention)
	assert.Equal(t, "project-photos", cfg.Storage.PhotoBucket)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"server": {"port": 7000},
		"security": {"jwt_secret": "from-file"},
		"workflow": {"allow_redecision": false},
		"database": {"db_name": "mrv_test"},
		"sensors": {"alert_rules": [{"field": "salinity", "operator": "greater_than", "threshold": 45, "severity": "critical"}]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Security.JWTSecret)
	assert.False(t, cfg.Workflow.AllowRedecision)
	assert.Equal(t, "mrv_test", cfg.Database.DBName)
	assert.Equal(t, "localhost", cfg.Database.Host)
	require.Len(t, cfg.Sensors.AlertRules, 1)
	assert.Equal(t, AlertRuleConfig{Field: "salinity", Operator: "greater_than", Threshold: 45, Severity: "critical"}, cfg.Sensors.AlertRules[0])
}

func TestLoadConfigRequiresVerificationKey(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestURLs(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", db.GetDatabaseURL())

	db.Password = "p@ss/w?rd"
	parsed, err := url.Parse(db.GetDatabaseURL())
	require.NoError(t, err)
	pass, _ := parsed.User.Password()
	assert.Equal(t, "p@ss/w?rd", pass)
	assert.Equal(t, "h:5432", parsed.Host)
	assert.Equal(t, "/d", parsed.Path)
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))

	srv := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", srv.GetServerAddr())
}

func TestBuildLogger(t *testing.T) {
	logger, err := (&LoggingConfig{Level: "debug", Format: "console"}).BuildLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = (&LoggingConfig{Level: "loud", Format: "json"}).BuildLogger()
	assert.Error(t, err)
}
