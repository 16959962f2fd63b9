// Package polygon implements repository.MarketData over the Polygon.io REST API.
package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/domain/repository"
	"ICTWatch/internal/service/ratelimit"
	"ICTWatch/pkg/cache"
	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/logger"
)

const (
	limiterKey   = "polygon"
	maxChainPage = 4
)

// Config holds the client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	RatePerSec  float64
	Burst       int
	BarsTTL     time.Duration
	ChainTTL    time.Duration
	EarningsTTL time.Duration
}

// Client fetches bars, option chains and earnings dates. Responses are cached
// and requests are throttled through a shared token bucket.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	cache   cache.Service
	metrics repository.Metrics
	log     *logger.Logger
	now     func() time.Time
}

var _ repository.MarketData = (*Client)(nil)

// New builds a client. A nil cache disables caching.
func New(cfg Config, httpc *xhttp.Client, limiter *ratelimit.Limiter, c cache.Service, m repository.Metrics, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.polygon.io"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Client{
		cfg:     cfg,
		http:    httpc,
		limiter: limiter,
		cache:   c,
		metrics: m,
		log:     log.With("polygon"),
		now:     time.Now,
	}
}

// FetchBars returns ascending bars for [from, to] by calendar date.
func (c *Client) FetchBars(ctx context.Context, symbol string, tf repository.Timeframe, from, to time.Time) ([]models.Bar, error) {
	symbol = strings.ToUpper(symbol)
	fromDay, toDay := from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02")
	key := cache.GenerateKeyWithParams("bars", symbol, tf.String(), fromDay, toDay)

	return cache.Remember(ctx, c.cache, key, c.cfg.BarsTTL, func(ctx context.Context) ([]models.Bar, error) {
		var resp aggsResponse
		path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
			url.PathEscape(symbol), tf.Multiplier, tf.Timespan, fromDay, toDay)
		err := c.get(ctx, "bars", c.cfg.BaseURL+path, map[string][]string{
			"adjusted": {"true"},
			"sort":     {"asc"},
			"limit":    {"50000"},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
		}
		return toBars(resp.Results), nil
	})
}

// FetchOptionsChain returns the snapshot chain, following next_url for a few pages.
func (c *Client) FetchOptionsChain(ctx context.Context, symbol string) ([]models.OptionContract, error) {
	symbol = strings.ToUpper(symbol)
	key := cache.GenerateKey("chain", symbol)

	return cache.Remember(ctx, c.cache, key, c.cfg.ChainTTL, func(ctx context.Context) ([]models.OptionContract, error) {
		var out []models.OptionContract
		next := c.cfg.BaseURL + "/v3/snapshot/options/" + url.PathEscape(symbol)
		params := map[string][]string{"limit": {"250"}}
		for page := 0; next != "" && page < maxChainPage; page++ {
			var resp chainResponse
			if err := c.get(ctx, "chain", next, params, &resp); err != nil {
				return nil, fmt.Errorf("fetch chain %s: %w", symbol, err)
			}
			for _, s := range resp.Results {
				out = append(out, s.contract())
			}
			// next_url already carries the cursor and limit
			next, params = resp.NextURL, nil
		}
		return out, nil
	})
}

// FetchNextEarningsDate returns the next report date on or after today (UTC).
func (c *Client) FetchNextEarningsDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	symbol = strings.ToUpper(symbol)
	today := c.now().UTC().Format("2006-01-02")
	key := cache.GenerateKeyWithParams("earnings", symbol, today)

	date, err := cache.Remember(ctx, c.cache, key, c.cfg.EarningsTTL, func(ctx context.Context) (string, error) {
		var resp earningsResponse
		err := c.get(ctx, "earnings", c.cfg.BaseURL+"/v3/reference/earnings", map[string][]string{
			"ticker":          {symbol},
			"order":           {"asc"},
			"sort":            {"report_date"},
			"limit":           {"1"},
			"report_date.gte": {today},
		}, &resp)
		if err != nil {
			return "", fmt.Errorf("fetch earnings %s: %w", symbol, err)
		}
		if len(resp.Results) == 0 {
			return "", nil
		}
		return resp.Results[0].ReportDate, nil
	})
	if err != nil || date == "" {
		return time.Time{}, false, err
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("earnings date %q: %w", date, err)
	}
	return t, true, nil
}

func (c *Client) get(ctx context.Context, op, rawURL string, params map[string][]string, dest interface{}) error {
	if c.cfg.APIKey == "" {
		return errors.New("polygon api key not set")
	}
	if err := c.limiter.Wait(ctx, limiterKey, float64(c.cfg.Burst), c.cfg.RatePerSec); err != nil {
		return err
	}
	if params == nil {
		params = map[string][]string{}
	}
	params["apiKey"] = []string{c.cfg.APIKey}

	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         rawURL,
		QueryParams: params,
	}, dest)
	c.metrics.RecordLatency("polygon_"+op, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordError("polygon_" + op)
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			c.log.Warn("polygon request failed",
				logger.String("op", op),
				logger.Int("status", se.Code),
				logger.String("retry_after", strconv.FormatFloat(se.RetryAfter.Seconds(), 'f', -1, 64)),
			)
		}
		return err
	}
	return nil
}
