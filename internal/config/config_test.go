package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/cleardesk/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.MarketData.QuoteCacheTTL)
	assert.Equal(t, time.Hour, cfg.MarketData.BondCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.MarketData.CacheSweepInterval)
	assert.Equal(t, 2, cfg.MarketData.Retries)
	assert.Equal(t, 5, cfg.MarketData.BreakerFailureThreshold)
	assert.Equal(t, 30, cfg.Policy.WashWindowDays)
	assert.Zero(t, cfg.Policy.MaxTradeAmountUSD)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
log:
  level: warn
server:
  port: 9090
market_data:
  quote_cache_ttl: 90s
  breaker_failure_threshold: 3
policy:
  wash_window_days: 14
  max_trade_amount_usd: 250000
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.MarketData.QuoteCacheTTL)
	assert.Equal(t, 3, cfg.MarketData.BreakerFailureThreshold)
	assert.Equal(t, 14, cfg.Policy.WashWindowDays)
	assert.Equal(t, float64(250000), cfg.Policy.MaxTradeAmountUSD)

	// Untouched keys keep defaults
	assert.Equal(t, 1000, cfg.MarketData.QuoteCacheSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLEARDESK_SERVER_PORT", "7070")
	t.Setenv("CLEARDESK_POLICY_WASH_WINDOW_DAYS", "7")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Policy.WashWindowDays)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"server.port out of range": "server:\n  port: -1\n",
		"zero quote cache":         "market_data:\n  quote_cache_size: 0\n",
		"zero sweep interval":      "market_data:\n  cache_sweep_interval: 0s\n",
		"negative retries":         "market_data:\n  retries: -2\n",
		"zero breaker threshold":   "market_data:\n  breaker_failure_threshold: 0\n",
		"nonpositive wash window":  "policy:\n  wash_window_days: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
