package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	scans     *prometheus.CounterVec
	setups    *prometheus.CounterVec
	scores    prometheus.Histogram
	rejects   *prometheus.CounterVec
	errorsTot *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	realizedR prometheus.Histogram
	notifies  *prometheus.CounterVec
	lastPrice *prometheus.GaugeVec
}

// New registers the recorder on the default registry. Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder's collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		scans: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ictwatch_scans_total",
				Help: "Universe scans started, by kind",
			},
			[]string{"kind"},
		),
		setups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ictwatch_setups_total",
				Help: "Accepted setups by symbol",
			},
			[]string{"symbol"},
		),
		scores: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ictwatch_setup_score",
				Help:    "Score of accepted setups",
				Buckets: prometheus.LinearBuckets(50, 10, 6),
			},
		),
		rejects: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ictwatch_rejects_total",
				Help: "Analyzer rejections by reason",
			},
			[]string{"reason"},
		),
		errorsTot: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ictwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ictwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		realizedR: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ictwatch_backtest_realized_r",
				Help:    "Realized R of simulated trades",
				Buckets: []float64{-1, -0.5, 0, 0.5, 1, 1.5, 2, 3},
			},
		),
		notifies: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ictwatch_notifications_total",
				Help: "Chat posts by channel and result",
			},
			[]string{"channel", "result"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ictwatch_last_price",
				Help: "Last streamed price for a watched symbol",
			},
			[]string{"symbol"},
		),
	}
}

func (r *Recorder) RecordScan(kind string) {
	r.scans.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSetup(symbol string, score float64) {
	r.setups.WithLabelValues(symbol).Inc()
	r.scores.Observe(score)
}

func (r *Recorder) RecordReject(reason string) {
	r.rejects.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTot.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordBacktest(realizedR float64) {
	r.realizedR.Observe(realizedR)
}

func (r *Recorder) RecordNotify(channel, result string) {
	r.notifies.WithLabelValues(channel, result).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// Nop discards everything; used by CLI paths that never expose /metrics.
type Nop struct{}

func (Nop) RecordScan(string)               {}
func (Nop) RecordSetup(string, float64)     {}
func (Nop) RecordReject(string)             {}
func (Nop) RecordError(string)              {}
func (Nop) RecordLatency(string, float64)   {}
func (Nop) RecordBacktest(float64)          {}
func (Nop) RecordNotify(string, string)     {}
func (Nop) RecordLastPrice(string, float64) {}
