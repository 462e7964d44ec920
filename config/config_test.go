package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 14400, cfg.Orchestrator.ScheduleIntervalSeconds)
	assert.InDelta(t, 0.6, cfg.Orchestrator.ConsensusThreshold, 0.0001)
	assert.InDelta(t, 0.5, cfg.Orchestrator.MinConfidenceForTrade, 0.0001)
	assert.InDelta(t, 0.2, cfg.Orchestrator.MaxPositionPct, 0.0001)
	assert.Equal(t, 60, cfg.Orchestrator.ErrorBackoffSeconds)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "council.yaml")
	contents := "orchestrator:\n  consensus_threshold: 0.75\n  schedule_interval_seconds: 3600\ndatabase:\n  driver: sqlite3\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, cfg.Orchestrator.ConsensusThreshold, 0.0001)
	assert.Equal(t, 3600, cfg.Orchestrator.ScheduleIntervalSeconds)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Database:     DatabaseConfig{Driver: "postgres"},
		Orchestrator: OrchestratorConfig{ConsensusThreshold: 1.5, MaxPositionPct: 0.2},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingDriver(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Orchestrator: OrchestratorConfig{ConsensusThreshold: 0.6, MaxPositionPct: 0.2},
	}
	require.Error(t, cfg.Validate())
}

func TestScheduleIntervalDuration(t *testing.T) {
	t.Parallel()
	oc := OrchestratorConfig{ScheduleIntervalSeconds: 14400, ErrorBackoffSeconds: 60}
	assert.Equal(t, "4h0m0s", oc.ScheduleInterval().String())
	assert.Equal(t, "1m0s", oc.ErrorBackoff().String())
}
