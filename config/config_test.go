package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60*time.Minute, cfg.InactivityThreshold)
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5*time.Second, cfg.ExecTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ROOM_INACTIVITY_THRESHOLD", "10m")
	t.Setenv("ROOM_SWEEP_INTERVAL", "1m")
	t.Setenv("EXEC_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.InactivityThreshold)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.ExecTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ROOM_SWEEP_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
