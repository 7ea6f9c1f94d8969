package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Volume sourcing policies. Exactly one is active per deployment; the two
// are never combined within a single run.
const (
	VolumePolicyReported = "reported"
	VolumePolicyEstimate = "estimate"
)

type Config struct {
	App struct {
		LogLevel       string
		LoggingEnabled bool
		MetricsPort    int
	}

	Bridge struct {
		OutputDir        string
		TickCapture      bool
		TradingEnabled   bool
		UseMarketDepth   bool
		BatchSize        int
		SymbolFilter     string
		UpdateInterval   time.Duration
		TradePollEvery   time.Duration
		MaxLatencyUs     uint64
		MaxPositionSize  uint32
		BufferCapacity   int
		VWAPWindow       int
		VolumePolicy     string
		TickSize         float64
		MaxChangePercent float64
	}

	Host struct {
		FeedURL  string
		OrderURL string
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// App settings
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.App.LoggingEnabled = getEnvAsBoolOrDefault("BRIDGE_LOGGING_ENABLED", true)
	cfg.App.MetricsPort = getEnvAsIntOrDefault("METRICS_PORT", 8080)

	// Bridge settings
	cfg.Bridge.OutputDir = getEnvOrDefault("BRIDGE_OUTPUT_DIR", "./data")
	cfg.Bridge.TickCapture = getEnvAsBoolOrDefault("BRIDGE_TICK_CAPTURE", true)
	cfg.Bridge.TradingEnabled = getEnvAsBoolOrDefault("BRIDGE_TRADING_ENABLED", false)
	cfg.Bridge.UseMarketDepth = getEnvAsBoolOrDefault("BRIDGE_USE_MARKET_DEPTH", true)
	cfg.Bridge.BatchSize = getEnvAsIntOrDefault("BRIDGE_BATCH_SIZE", 50)
	cfg.Bridge.SymbolFilter = getEnvOrDefault("BRIDGE_SYMBOL_FILTER", "NQ,ES,YM,RTY,VIX")
	cfg.Bridge.UpdateInterval = time.Duration(getEnvAsIntOrDefault("BRIDGE_UPDATE_INTERVAL_MS", 100)) * time.Millisecond
	cfg.Bridge.TradePollEvery = time.Duration(getEnvAsIntOrDefault("BRIDGE_TRADE_POLL_MS", 500)) * time.Millisecond
	cfg.Bridge.MaxLatencyUs = uint64(getEnvAsIntOrDefault("BRIDGE_MAX_LATENCY_US", 500))
	cfg.Bridge.MaxPositionSize = uint32(getEnvAsIntOrDefault("BRIDGE_MAX_POSITION_SIZE", 10))
	cfg.Bridge.BufferCapacity = getEnvAsIntOrDefault("BRIDGE_BUFFER_CAPACITY", 20000)
	cfg.Bridge.VWAPWindow = getEnvAsIntOrDefault("BRIDGE_VWAP_WINDOW", 200)
	cfg.Bridge.VolumePolicy = getEnvOrDefault("BRIDGE_VOLUME_POLICY", VolumePolicyEstimate)
	cfg.Bridge.TickSize = getEnvAsFloatOrDefault("BRIDGE_TICK_SIZE", 0.25)
	cfg.Bridge.MaxChangePercent = getEnvAsFloatOrDefault("BRIDGE_MAX_CHANGE_PERCENT", 50.0)

	// Host platform endpoints
	cfg.Host.FeedURL = getEnvOrDefault("FEED_URL", "ws://localhost:8765/feed")
	cfg.Host.OrderURL = getEnvOrDefault("HOST_ORDER_URL", "http://localhost:8765/order")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Bridge.VolumePolicy {
	case VolumePolicyReported, VolumePolicyEstimate:
	default:
		return fmt.Errorf("invalid BRIDGE_VOLUME_POLICY %q: must be %q or %q",
			c.Bridge.VolumePolicy, VolumePolicyReported, VolumePolicyEstimate)
	}
	if c.Bridge.BufferCapacity <= 0 {
		return fmt.Errorf("BRIDGE_BUFFER_CAPACITY must be positive, got %d", c.Bridge.BufferCapacity)
	}
	if c.Bridge.TickSize <= 0 {
		return fmt.Errorf("BRIDGE_TICK_SIZE must be positive, got %v", c.Bridge.TickSize)
	}
	return nil
}

// SymbolFilterList splits the comma-separated filter into trimmed uppercase
// entries. Empty filter means accept all symbols.
func (c *Config) SymbolFilterList() []string {
	parts := strings.Split(c.Bridge.SymbolFilter, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
