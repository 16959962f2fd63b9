package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "America/Los_Angeles", c.Timezone)
	assert.Equal(t, 40, c.Universe.MaxSymbols)
	assert.Equal(t, 6, c.Scan.MaxConcurrency)
	assert.Equal(t, 90.0, c.Scan.MinScore)
	assert.Equal(t, 10, c.Projection.Days)
	assert.Equal(t, 0.05, c.Projection.Min)
	assert.Equal(t, 0.10, c.Projection.Max)
	assert.Equal(t, 3, c.Detectors.SwingN)
	assert.Equal(t, 0.5, c.Detectors.BOSATRMult)
	assert.Equal(t, 0.1, c.Detectors.FVGATRMult)
	assert.Equal(t, 10, c.Detectors.OBLookback)
	assert.Equal(t, 0.001, c.Detectors.LiquidityTol)
	assert.Equal(t, 5*time.Minute, c.Polygon.BarsTTL)
	assert.Equal(t, 2*time.Minute, c.Polygon.ChainTTL)
	assert.Equal(t, "0 6 * * 1-5", c.Schedule.Premarket)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 0.15, c.GEX.WindowPct)
	assert.NoError(t, c.Validate())
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  min_score: 70
projection:
  mode: iv
weights:
  bos: 30
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 70.0, c.Scan.MinScore)
	assert.Equal(t, "iv", c.Projection.Mode)
	assert.Equal(t, 30.0, c.Weights.BOS)
	// untouched sections keep defaults
	assert.Equal(t, 6, c.Scan.MaxConcurrency)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [1, 2"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	env := map[string]string{
		"POLYGON_API_KEY":           "pk",
		"DISCORD_WEBHOOK_WATCHLIST": "https://hooks/w",
		"TZ":                        "America/New_York",
		"BACKTEST_CONCURRENCY":      "9",
		"KAFKA_BROKERS":             "a:9092, b:9092,",
		"MIN_SCORE":                 "75.5",
		"MAX_SYMBOLS":               "not-a-number",
	}
	c.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "pk", c.Polygon.APIKey)
	assert.Equal(t, "America/New_York", c.Timezone)
	assert.Equal(t, 9, c.Backtest.Concurrency)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 75.5, c.Scan.MinScore)
	assert.Equal(t, 40, c.Universe.MaxSymbols)
	assert.NoError(t, c.RequirePolygonKey())
	assert.Equal(t, "America/New_York", c.Location().String())
}

func TestWebhookFallback(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	c.Discord.WatchlistWebhook = "w"
	assert.Equal(t, "w", c.EntriesWebhook())
	assert.Equal(t, "w", c.MacroWebhook())

	c.Discord.EntriesWebhook = "e"
	assert.Equal(t, "e", c.EntriesWebhook())
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.ErrorIs(t, c.RequirePolygonKey(), ErrMissingAPIKey)

	c.Projection.Max = 0.01
	assert.Error(t, c.Validate())
	c.Projection.Max = 0.10

	c.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())
	c.Timezone = "UTC"

	c.Discord.Async = true
	assert.Error(t, c.Validate())
	c.Redis.Enabled = true
	assert.NoError(t, c.Validate())
}
