// Package middleware sits between the realtime stream and the live monitor.
package middleware

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/pkg/logger"
)

// TickProcessor consumes accepted ticks.
type TickProcessor interface {
	ProcessTick(ctx context.Context, t *models.Tick) error
}

// TickPipeline validates, throttles per symbol and forwards ticks. Ticks the
// processor rejects are buffered and retried in the background.
type TickPipeline struct {
	proc     TickProcessor
	metrics  domrepo.Metrics
	log      *logger.Logger
	maxRPS   int
	bufCh    chan *models.Tick
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

type PipelineOption func(*TickPipeline)

// WithMaxRPS sets the max ticks per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.Tick, n)
		}
	}
}

// NewTickPipeline creates a new pipeline.
func NewTickPipeline(proc TickProcessor, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		proc:     proc,
		metrics:  metrics,
		log:      log.With("tick-pipeline"),
		maxRPS:   20,
		bufCh:    make(chan *models.Tick, 256),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the retry loop for buffered ticks.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		b := &backoff.Backoff{Min: 50 * time.Millisecond, Max: 2 * time.Second, Factor: 2}
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case t := <-p.bufCh:
				if err := p.proc.ProcessTick(ctx, t); err == nil {
					b.Reset()
					continue
				}
				p.metrics.RecordError("pipeline_retry")
				select {
				case <-time.After(b.Duration()):
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				}
				select {
				case p.bufCh <- t:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
			}
		}
	}()
}

// Stop stops the retry loop.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Process validates, throttles and forwards one tick.
func (p *TickPipeline) Process(ctx context.Context, t *models.Tick) error {
	start := time.Now()
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	t.Symbol = strings.ToUpper(t.Symbol)
	if !p.allow(t.Symbol, start) {
		return nil
	}
	p.metrics.RecordLastPrice(t.Symbol, t.Price)

	if err := p.proc.ProcessTick(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		p.log.Warn("tick processing failed", logger.String("symbol", t.Symbol), logger.Error(err))
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price <= 0 || t.Volume < 0 {
		return fmt.Errorf("invalid price/volume")
	}
	return nil
}

// allow admits at most maxRPS ticks per second per symbol.
func (p *TickPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
