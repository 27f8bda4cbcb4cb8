package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, 20, cfg.FishCount)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.ServerURL)
	assert.Equal(t, 3200*time.Millisecond, cfg.StaleAfter)
	assert.Equal(t, 2500*time.Millisecond, cfg.ReconnectEvery)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("AQUARIUM_TICKRATE", "30")
	t.Setenv("AQUARIUM_FISHCOUNT", "5")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.TickRate)
	assert.Equal(t, 5, cfg.FishCount)
}

func TestNormalizedRejectsUnusableValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Addr:      "  ",
		TickRate:  -1,
		FishCount: -3,
	}.normalized()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, 0, cfg.FishCount)
	assert.Positive(t, cfg.StaleAfter)
	assert.Positive(t, cfg.ReconnectEvery)
}
