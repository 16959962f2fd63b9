package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ICTWatch/internal/services/bias"
	"ICTWatch/internal/services/scoring"
	"ICTWatch/pkg/logger"
)

// ErrMissingAPIKey is returned when an operation needs a credential that is not configured.
var ErrMissingAPIKey = errors.New("missing api key")

// DefaultUniverse is scanned when no universe file is configured.
var DefaultUniverse = []string{
	"SPY", "QQQ", "IWM",
	"AAPL", "MSFT", "NVDA", "AMZN", "META", "TSLA", "GOOGL",
	"AMD", "NFLX", "BA", "JPM", "INTC",
}

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Timezone    string        `yaml:"timezone" default:"America/Los_Angeles" validate:"required"`
	Log         logger.Config `yaml:"log"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Polygon struct {
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url" default:"https://api.polygon.io" validate:"url"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		RatePerSec  float64       `yaml:"rate_per_sec" default:"5" validate:"gt=0"`
		Burst       int           `yaml:"burst" default:"5" validate:"gt=0"`
		BarsTTL     time.Duration `yaml:"bars_ttl" default:"5m"`
		ChainTTL    time.Duration `yaml:"chain_ttl" default:"2m"`
		EarningsTTL time.Duration `yaml:"earnings_ttl" default:"6h"`
	} `yaml:"polygon"`

	Discord struct {
		WatchlistWebhook string        `yaml:"watchlist_webhook"`
		EntriesWebhook   string        `yaml:"entries_webhook"`
		MacroWebhook     string        `yaml:"macro_webhook"`
		Timeout          time.Duration `yaml:"timeout" default:"15s"`
		MaxRetries       int           `yaml:"max_retries" default:"3" validate:"gte=0"`
		Async            bool          `yaml:"async"`
	} `yaml:"discord"`

	Journal struct {
		Path   string `yaml:"path" default:"data/journal.csv" validate:"required"`
		APIKey string `yaml:"api_key"`
	} `yaml:"journal"`

	Universe struct {
		File       string   `yaml:"file"`
		Symbols    []string `yaml:"symbols"`
		MaxSymbols int      `yaml:"max_symbols" default:"40" validate:"gt=0"`
	} `yaml:"universe"`

	Scan struct {
		MaxConcurrency int           `yaml:"max_concurrency" default:"6" validate:"gt=0"`
		MinScore       float64       `yaml:"min_score" default:"90" validate:"gte=0,lte=100"`
		LookbackDays   int           `yaml:"lookback_days" default:"10" validate:"gt=0"`
		TimeframeMin   int           `yaml:"timeframe_min" default:"5" validate:"gt=0"`
		MinBars        int           `yaml:"min_bars" default:"80" validate:"gt=0"`
		ATRWindow      int           `yaml:"atr_window" default:"14" validate:"gt=0"`
		EarningsDays   int           `yaml:"earnings_flag_days" default:"7" validate:"gte=0"`
		HTFLookback    int           `yaml:"htf_lookback_days" default:"30" validate:"gt=0"`
		Timeout        time.Duration `yaml:"timeout" default:"5m"`
		WatchlistRows  int           `yaml:"watchlist_rows" default:"20" validate:"gt=0"`
		EntryAlerts    int           `yaml:"entry_alerts" default:"5" validate:"gte=0"`
	} `yaml:"scan"`

	Detectors struct {
		SwingN       int     `yaml:"swing_n" default:"3" validate:"gt=0"`
		BOSATRMult   float64 `yaml:"bos_atr_mult" default:"0.5" validate:"gte=0"`
		FVGATRMult   float64 `yaml:"fvg_atr_mult" default:"0.1" validate:"gte=0"`
		OBLookback   int     `yaml:"ob_lookback" default:"10" validate:"gt=0"`
		LiquidityTol float64 `yaml:"liquidity_tol" default:"0.001" validate:"gte=0"`
	} `yaml:"detectors"`

	Projection struct {
		Mode string  `yaml:"mode" default:"trend" validate:"oneof=trend iv"`
		Days int     `yaml:"days" default:"10" validate:"gt=0"`
		Min  float64 `yaml:"min" default:"0.05"`
		Max  float64 `yaml:"max" default:"0.10" validate:"gtefield=Min"`
	} `yaml:"projection"`

	Weights scoring.Weights      `yaml:"weights"`
	Options scoring.OptionParams `yaml:"options"`
	GEX     bias.GEXParams       `yaml:"gex"`

	Macro struct {
		ICSURL       string        `yaml:"ics_url"`
		BlockMinutes int           `yaml:"block_minutes" default:"30" validate:"gte=0"`
		Timeout      time.Duration `yaml:"timeout" default:"15s"`
		MaxShown     int           `yaml:"max_shown" default:"4" validate:"gt=0"`
	} `yaml:"macro"`

	Live struct {
		Enabled     bool          `yaml:"enabled"`
		MaxSymbols  int           `yaml:"max_symbols" default:"20" validate:"gt=0"`
		Tolerance   float64       `yaml:"tolerance" default:"0.0005" validate:"gte=0"`
		Start       string        `yaml:"start" default:"06:30"`
		End         string        `yaml:"end" default:"13:00"`
		DedupeTTL   time.Duration `yaml:"dedupe_ttl" default:"12h"`
		MaxRPS      int           `yaml:"max_rps" default:"50" validate:"gt=0"`
		RetryBuffer int           `yaml:"retry_buffer" default:"256" validate:"gt=0"`
	} `yaml:"live"`

	Backtest struct {
		Days        int `yaml:"days" default:"5" validate:"gt=0"`
		TFMin       int `yaml:"tf_min" default:"5" validate:"gt=0"`
		Limit       int `yaml:"limit" default:"50" validate:"gt=0"`
		Concurrency int `yaml:"concurrency" default:"5" validate:"gt=0"`
	} `yaml:"backtest"`

	Schedule struct {
		Premarket string `yaml:"premarket" default:"0 6 * * 1-5"`
		Evening   string `yaml:"evening" default:"30 17 * * 1-5"`
		Weekly    string `yaml:"weekly" default:"0 8 * * 0"`
		Live      string `yaml:"live"`
		Macro     string `yaml:"macro"`
	} `yaml:"schedule"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Queue struct {
		Workers     int `yaml:"workers" default:"2" validate:"gt=0"`
		MaxAttempts int `yaml:"max_attempts" default:"5" validate:"gt=0"`
	} `yaml:"queue"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		Topic        string   `yaml:"topic" default:"ictwatch.setups"`
		LogTopic     string   `yaml:"log_topic" default:"ictwatch.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Consumer     struct {
			GroupID    string        `yaml:"group_id" default:"ictwatch-archive"`
			Workers    int           `yaml:"workers" default:"2" validate:"gt=0"`
			BufferSize int           `yaml:"buffer_size" default:"256" validate:"gt=0"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"ictwatch.setups.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"ictwatch"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		AsyncInsert bool          `yaml:"async_insert"`
	} `yaml:"clickhouse"`

	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"finnhub"`
}

// Load applies defaults, then overlays the YAML file at path. A missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	return &c, nil
}

// LoadWithEnv loads the file, applies environment overrides and validates.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.LookupEnv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	flt := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				*dst = f
			}
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}

	str("POLYGON_API_KEY", &c.Polygon.APIKey)
	str("DISCORD_WEBHOOK_WATCHLIST", &c.Discord.WatchlistWebhook)
	str("DISCORD_WEBHOOK_ENTRIES", &c.Discord.EntriesWebhook)
	str("DISCORD_WEBHOOK_MACRO", &c.Discord.MacroWebhook)
	str("JOURNAL_API_KEY", &c.Journal.APIKey)
	str("JOURNAL_PATH", &c.Journal.Path)
	str("TZ", &c.Timezone)
	str("UNIVERSE_FILE", &c.Universe.File)
	str("MACRO_ICS_URL", &c.Macro.ICSURL)
	str("FINNHUB_API_KEY", &c.Finnhub.APIKey)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)

	num("MAX_SYMBOLS", &c.Universe.MaxSymbols)
	num("MAX_CONCURRENCY", &c.Scan.MaxConcurrency)
	num("EARNINGS_FLAG_DAYS", &c.Scan.EarningsDays)
	num("PROJ_DAYS", &c.Projection.Days)
	num("DTE_MIN", &c.Options.DTEMin)
	num("DTE_MAX", &c.Options.DTEMax)
	num("BACKTEST_DAYS", &c.Backtest.Days)
	num("BACKTEST_TF_MIN", &c.Backtest.TFMin)
	num("BACKTEST_LIMIT", &c.Backtest.Limit)
	num("BACKTEST_CONCURRENCY", &c.Backtest.Concurrency)
	num("PORT", &c.Server.Port)

	flt("MIN_SCORE", &c.Scan.MinScore)
	flt("PROJ_MIN", &c.Projection.Min)
	flt("PROJ_MAX", &c.Projection.Max)
	flt("DELTA_TARGET", &c.Options.DeltaTarget)
	flt("DELTA_BAND", &c.Options.DeltaBand)
	flt("OI_MIN", &c.Options.OIMin)
	flt("SPREAD_MAX", &c.Options.SpreadMax)
	flt("LIVE_TOL", &c.Live.Tolerance)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.Discord.Async && !c.Redis.Enabled {
		return errors.New("discord.async requires redis.enabled")
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequirePolygonKey fails fast for operations that hit the market-data API.
func (c *Config) RequirePolygonKey() error {
	if strings.TrimSpace(c.Polygon.APIKey) == "" {
		return fmt.Errorf("%w: POLYGON_API_KEY", ErrMissingAPIKey)
	}
	return nil
}

// EntriesWebhook falls back to the watchlist webhook.
func (c *Config) EntriesWebhook() string {
	if c.Discord.EntriesWebhook != "" {
		return c.Discord.EntriesWebhook
	}
	return c.Discord.WatchlistWebhook
}

// MacroWebhook falls back to the watchlist webhook.
func (c *Config) MacroWebhook() string {
	if c.Discord.MacroWebhook != "" {
		return c.Discord.MacroWebhook
	}
	return c.Discord.WatchlistWebhook
}
