// Package discord posts embeds to Discord webhooks.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/logger"
)

// Payload is the webhook request body.
type Payload struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Footer struct {
	Text string `json:"text"`
}

// Sink is one delivery target.
type Sink interface {
	Name() string
	Post(ctx context.Context, p Payload) error
}

// WebhookSink posts to a single webhook URL. 429 responses are retried after
// Retry-After; 5xx and transport errors use exponential backoff.
type WebhookSink struct {
	name       string
	url        string
	client     *xhttp.Client
	maxRetries int
	backoffMin time.Duration
	backoffMax time.Duration
	log        *logger.Logger
	sleep      func(context.Context, time.Duration) error
}

func NewWebhookSink(name, url string, client *xhttp.Client, maxRetries int, log *logger.Logger) *WebhookSink {
	return &WebhookSink{
		name:       name,
		url:        url,
		client:     client,
		maxRetries: maxRetries,
		backoffMin: 500 * time.Millisecond,
		backoffMax: 10 * time.Second,
		log:        log,
		sleep:      sleepCtx,
	}
}

func (s *WebhookSink) Name() string { return s.name }

func (s *WebhookSink) Post(ctx context.Context, p Payload) error {
	b := &backoff.Backoff{Min: s.backoffMin, Max: s.backoffMax, Factor: 2, Jitter: true}
	var err error
	for attempt := 0; ; attempt++ {
		err = s.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    s.url,
			Body:   p,
		}, nil)
		if err == nil {
			return nil
		}
		if attempt >= s.maxRetries || !retryable(err) {
			break
		}

		wait := b.Duration()
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.TooManyRequests() {
			wait = se.RetryAfter
		}
		s.log.Warn("webhook post retry",
			logger.String("sink", s.name),
			logger.Int("attempt", attempt+1),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
		if serr := s.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("post %s: %w", s.name, err)
}

func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.TooManyRequests() || se.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SinkChain tries its sinks in order and stops at the first success.
type SinkChain []Sink

// NewSinkChain keeps only sinks with a configured URL, dropping duplicates.
func NewSinkChain(client *xhttp.Client, maxRetries int, log *logger.Logger, targets ...[2]string) SinkChain {
	var chain SinkChain
	seen := map[string]bool{}
	for _, t := range targets {
		name, url := t[0], t[1]
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		chain = append(chain, NewWebhookSink(name, url, client, maxRetries, log))
	}
	return chain
}

var ErrNoSink = errors.New("discord: no webhook configured")

func (c SinkChain) Post(ctx context.Context, p Payload) error {
	if len(c) == 0 {
		return ErrNoSink
	}
	var errs []error
	for _, s := range c {
		err := s.Post(ctx, p)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}
