package discord

import (
	"context"
	"encoding/json"
	"fmt"

	"ICTWatch/internal/domain/models"
	"ICTWatch/internal/domain/repository"
	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/queue"
)

// Channel names a webhook destination.
type Channel string

const (
	ChannelWatchlist Channel = "watchlist"
	ChannelEntries   Channel = "entries"
	ChannelMacro     Channel = "macro"

	// JobType is the queue message type for deferred posts.
	JobType = "discord.post"
)

type Config struct {
	WatchlistWebhook string
	EntriesWebhook   string
	MacroWebhook     string
	MaxRetries       int
}

// Notifier implements repository.Notifier. Entries and macro posts fall back
// to the watchlist webhook when their own hook fails or is unset.
type Notifier struct {
	chains  map[Channel]SinkChain
	async   queue.Publisher
	metrics repository.Metrics
	log     *logger.Logger
}

type Option func(*Notifier)

// WithAsync routes posts through the job queue instead of posting inline.
func WithAsync(pub queue.Publisher) Option {
	return func(n *Notifier) { n.async = pub }
}

func NewNotifier(cfg Config, client *xhttp.Client, metrics repository.Metrics, log *logger.Logger, opts ...Option) *Notifier {
	log = log.With("discord")
	wl := [2]string{"watchlist", cfg.WatchlistWebhook}
	n := &Notifier{
		chains: map[Channel]SinkChain{
			ChannelWatchlist: NewSinkChain(client, cfg.MaxRetries, log, wl),
			ChannelEntries:   NewSinkChain(client, cfg.MaxRetries, log, [2]string{"entries", cfg.EntriesWebhook}, wl),
			ChannelMacro:     NewSinkChain(client, cfg.MaxRetries, log, [2]string{"macro", cfg.MacroWebhook}, wl),
		},
		metrics: metrics,
		log:     log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) SendWatchlist(ctx context.Context, title string, lines []string) error {
	return n.dispatch(ctx, ChannelWatchlist, WatchlistPayload(title, lines))
}

func (n *Notifier) SendEntry(ctx context.Context, s *models.Setup) error {
	return n.dispatch(ctx, ChannelEntries, EntryPayload(s))
}

func (n *Notifier) SendMacro(ctx context.Context, title, macroLine, sectorsLine string) error {
	return n.dispatch(ctx, ChannelMacro, MacroPayload(title, macroLine, sectorsLine))
}

// delivery is the queued form of a post.
type delivery struct {
	Channel Channel `json:"channel"`
	Payload Payload `json:"payload"`
}

func (n *Notifier) dispatch(ctx context.Context, ch Channel, p Payload) error {
	if n.async != nil {
		if err := n.async.PublishMessage(ctx, JobType, delivery{Channel: ch, Payload: p}); err != nil {
			n.metrics.RecordNotify(string(ch), "enqueue_error")
			return fmt.Errorf("enqueue %s post: %w", ch, err)
		}
		n.metrics.RecordNotify(string(ch), "queued")
		return nil
	}
	return n.post(ctx, ch, p)
}

func (n *Notifier) post(ctx context.Context, ch Channel, p Payload) error {
	chain, ok := n.chains[ch]
	if !ok {
		return fmt.Errorf("unknown channel %q", ch)
	}
	if err := chain.Post(ctx, p); err != nil {
		n.metrics.RecordNotify(string(ch), "error")
		n.log.Error("post failed", logger.String("channel", string(ch)), logger.Error(err))
		return err
	}
	n.metrics.RecordNotify(string(ch), "ok")
	return nil
}

// DeliveryJob drains queued posts.
type DeliveryJob struct {
	n *Notifier
}

func NewDeliveryJob(n *Notifier) *DeliveryJob { return &DeliveryJob{n: n} }

func (j *DeliveryJob) Name() string { return "discord-delivery" }
func (j *DeliveryJob) Type() string { return JobType }

func (j *DeliveryJob) Handle(ctx context.Context, payload json.RawMessage) error {
	d, err := queue.Decode[delivery](payload)
	if err != nil {
		return err
	}
	return j.n.post(ctx, d.Channel, d.Payload)
}

var (
	_ repository.Notifier = (*Notifier)(nil)
	_ queue.Job           = (*DeliveryJob)(nil)
)
