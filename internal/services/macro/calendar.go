package macro

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"ICTWatch/pkg/cache"
	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/logger"
)

const (
	maxShownDefault = 4
	icsCacheTTL     = 15 * time.Minute
)

// Calendar fetches the configured ICS feed. With no URL it reports no events.
type Calendar struct {
	url      string
	client   *xhttp.Client
	cache    cache.Service
	loc      *time.Location
	block    time.Duration
	maxShown int
	log      *logger.Logger
}

type Config struct {
	URL          string
	BlockMinutes int
	MaxShown     int
}

func NewCalendar(cfg Config, client *xhttp.Client, c cache.Service, loc *time.Location, log *logger.Logger) *Calendar {
	shown := cfg.MaxShown
	if shown <= 0 {
		shown = maxShownDefault
	}
	return &Calendar{
		url:      cfg.URL,
		client:   client,
		cache:    c,
		loc:      loc,
		block:    time.Duration(cfg.BlockMinutes) * time.Minute,
		maxShown: shown,
		log:      log.With("macro"),
	}
}

// Today returns the keyword events on now's calendar day and the subset
// that is blocking at now. Fetch failures are logged and yield no events.
func (c *Calendar) Today(ctx context.Context, now time.Time) (all, blocking []Event) {
	if c.url == "" {
		return nil, nil
	}
	raw, err := cache.Remember(ctx, c.cache, cache.GenerateKeyWithParams("macro", "ics", c.url), icsCacheTTL,
		func(ctx context.Context) ([]byte, error) {
			var b []byte
			if err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: c.url}, &b); err != nil {
				return nil, fmt.Errorf("fetch ics: %w", err)
			}
			return b, nil
		})
	if err != nil {
		c.log.Warn("macro calendar unavailable", logger.Error(err))
		return nil, nil
	}
	evs, err := Parse(bytes.NewReader(raw), c.loc)
	if err != nil {
		c.log.Warn("macro calendar parse failed", logger.Error(err))
		return nil, nil
	}
	all = OnDay(evs, now.In(c.loc))
	return all, Blocking(all, now, c.block)
}

// Header renders the summary line for events.
func (c *Calendar) Header(evs []Event) string {
	return Header(evs, c.block, c.maxShown)
}

// OnDay keeps events whose start falls on day's date in day's location.
func OnDay(evs []Event, day time.Time) []Event {
	y, m, d := day.Date()
	var out []Event
	for _, e := range evs {
		ey, em, ed := e.Start.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out
}

// Blocking returns events starting within window of now. A zero window
// disables blocking.
func Blocking(evs []Event, now time.Time, window time.Duration) []Event {
	if window <= 0 {
		return nil
	}
	var out []Event
	for _, e := range evs {
		d := e.Start.Sub(now)
		if d < 0 {
			d = -d
		}
		if d <= window {
			out = append(out, e)
		}
	}
	return out
}

// Header formats "Macro: CPI @ 5:30am PT; FOMC @ 11am PT (block ±30m)".
func Header(evs []Event, window time.Duration, maxShown int) string {
	if len(evs) == 0 {
		return "Macro: none"
	}
	n := len(evs)
	if maxShown > 0 && n > maxShown {
		n = maxShown
	}
	parts := make([]string, 0, n+1)
	for _, e := range evs[:n] {
		parts = append(parts, fmt.Sprintf("%s @ %s PT", e.Title, clock(e.Start)))
	}
	if extra := len(evs) - n; extra > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", extra))
	}
	line := "Macro: " + strings.Join(parts, "; ")
	if window > 0 {
		line += fmt.Sprintf(" (block ±%dm)", int(window.Minutes()))
	}
	return line
}

func clock(t time.Time) string {
	return strings.Replace(t.Format("3:04pm"), ":00", "", 1)
}
