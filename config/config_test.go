package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Bridge.OutputDir)
	assert.True(t, cfg.Bridge.TickCapture)
	assert.False(t, cfg.Bridge.TradingEnabled, "trading defaults to off")
	assert.Equal(t, 100*time.Millisecond, cfg.Bridge.UpdateInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Bridge.TradePollEvery)
	assert.Equal(t, uint32(10), cfg.Bridge.MaxPositionSize)
	assert.Equal(t, 20000, cfg.Bridge.BufferCapacity)
	assert.Equal(t, 200, cfg.Bridge.VWAPWindow)
	assert.Equal(t, VolumePolicyEstimate, cfg.Bridge.VolumePolicy)
	assert.Equal(t, 0.25, cfg.Bridge.TickSize)
	assert.Equal(t, "ws://localhost:8765/feed", cfg.Host.FeedURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BRIDGE_TRADING_ENABLED", "true")
	t.Setenv("BRIDGE_VOLUME_POLICY", "reported")
	t.Setenv("BRIDGE_TICK_SIZE", "0.1")
	t.Setenv("BRIDGE_UPDATE_INTERVAL_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Bridge.TradingEnabled)
	assert.Equal(t, VolumePolicyReported, cfg.Bridge.VolumePolicy)
	assert.Equal(t, 0.1, cfg.Bridge.TickSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Bridge.UpdateInterval)
}

func TestLoadRejectsInvalidPolicy(t *testing.T) {
	t.Setenv("BRIDGE_VOLUME_POLICY", "hybrid")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BRIDGE_VOLUME_POLICY")
}

func TestSymbolFilterList(t *testing.T) {
	cfg := &Config{}
	cfg.Bridge.SymbolFilter = " nq, ES ,,ym "
	assert.Equal(t, []string{"NQ", "ES", "YM"}, cfg.SymbolFilterList())

	cfg.Bridge.SymbolFilter = ""
	assert.Empty(t, cfg.SymbolFilterList())
}
