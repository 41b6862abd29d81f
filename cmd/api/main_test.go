package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/config"
	"bluechain-mrv/backend/internal/sensordata"
)

func TestMigrateSkipsEmptyPath(t *testing.T) {
	// An unreachable host would fail if migrations were attempted.
	cfg := &config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "u", DBName: "d", SSLMode: "disable"}
	assert.NoError(t, migrate(cfg, zap.NewNop()))
}

func TestAlertRulesFromConfig(t *testing.T) {
	assert.Empty(t, alertRules(config.SensorConfig{}))

	rules := alertRules(config.SensorConfig{AlertRules: []config.AlertRuleConfig{
		{Field: "ph", Operator: "less_than", Threshold: 7, Severity: "critical"},
	}})
	require.Len(t, rules, 1)
	assert.Equal(t, sensordata.AlertRule{
		Field:     "ph",
		Operator:  sensordata.OperatorLessThan,
		Threshold: 7,
		Severity:  sensordata.SeverityCritical,
	}, rules[0])
}
