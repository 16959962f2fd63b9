package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ICTWatch/internal/domain/models"
	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/metrics"
)

type hook struct {
	mu       sync.Mutex
	payloads []Payload
	statuses []int
	calls    atomic.Int32
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(h.calls.Add(1)) - 1
	var p Payload
	_ = json.NewDecoder(r.Body).Decode(&p)
	h.mu.Lock()
	h.payloads = append(h.payloads, p)
	h.mu.Unlock()

	status := http.StatusNoContent
	if n < len(h.statuses) {
		status = h.statuses[n]
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "0")
	}
	w.WriteHeader(status)
}

func sampleSetup() *models.Setup {
	return &models.Setup{
		Symbol:      "SPY",
		Direction:   models.Long,
		Entry:       100,
		Stop:        98,
		Targets:     [4]float64{102, 104, 106, 108},
		Score:       95,
		ProjMovePct: 6.5,
		Bias:        models.BiasSnapshot{DDOI: "pos", OpexWeek: true},
		Option:      &models.OptionPick{Type: "CALL", Strike: 105, Expiry: "2025-03-13", Delta: 0.35, Premium: 1.02, DTE: 10, Spread: 0.04, OI: 2000, ROIPct: 294.1},
		Strat:       "2u",
		HTFBias:     "bull",
	}
}

func TestSendWatchlist(t *testing.T) {
	h := &hook{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	n := NewNotifier(Config{WatchlistWebhook: srv.URL, MaxRetries: 2}, xhttp.NewClient(), metrics.Nop{}, logger.Nop())
	require.NoError(t, n.SendWatchlist(context.Background(), "Premarket", []string{"SPY long", "QQQ short"}))

	require.Len(t, h.payloads, 1)
	e := h.payloads[0].Embeds[0]
	assert.Equal(t, "Premarket", e.Title)
	assert.Equal(t, "SPY long\nQQQ short", e.Description)
	assert.Equal(t, footerNFA, e.Footer.Text)
}

func TestSendEntryRetriesAfter429(t *testing.T) {
	h := &hook{statuses: []int{http.StatusTooManyRequests}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	n := NewNotifier(Config{EntriesWebhook: srv.URL, MaxRetries: 3}, xhttp.NewClient(), metrics.Nop{}, logger.Nop())
	require.NoError(t, n.SendEntry(context.Background(), sampleSetup()))

	assert.Equal(t, int32(2), h.calls.Load())
	e := h.payloads[1].Embeds[0]
	assert.Equal(t, "ENTRY – SPY LONG", e.Title)
	assert.Equal(t, "100.00 / 98.00 (1R=2.00)", e.Fields[0].Value)
	assert.Equal(t, "T1 102.00 | T2 104.00 | T3 106.00 | T4 108.00", e.Fields[1].Value)
}

func TestEntryFallsBackToWatchlist(t *testing.T) {
	bad := &hook{statuses: []int{http.StatusBadRequest}}
	good := &hook{}
	badSrv, goodSrv := httptest.NewServer(bad), httptest.NewServer(good)
	defer badSrv.Close()
	defer goodSrv.Close()

	n := NewNotifier(Config{EntriesWebhook: badSrv.URL, WatchlistWebhook: goodSrv.URL, MaxRetries: 3},
		xhttp.NewClient(), metrics.Nop{}, logger.Nop())
	require.NoError(t, n.SendEntry(context.Background(), sampleSetup()))

	assert.Equal(t, int32(1), bad.calls.Load(), "4xx is not retried")
	assert.Equal(t, int32(1), good.calls.Load())
}

func TestNoWebhookConfigured(t *testing.T) {
	n := NewNotifier(Config{}, xhttp.NewClient(), metrics.Nop{}, logger.Nop())
	assert.ErrorIs(t, n.SendMacro(context.Background(), "Macro", "Macro: none", "Sectors: n/a"), ErrNoSink)
}

type capturePublisher struct {
	msgType string
	payload interface{}
}

func (c *capturePublisher) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	c.msgType, c.payload = msgType, payload
	return nil
}

func TestAsyncDeliveryRoundTrip(t *testing.T) {
	h := &hook{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	pub := &capturePublisher{}
	n := NewNotifier(Config{MacroWebhook: srv.URL}, xhttp.NewClient(), metrics.Nop{}, logger.Nop(), WithAsync(pub))
	require.NoError(t, n.SendMacro(context.Background(), "Macro Update", "Macro: CPI 05:30", "Sectors: XLK +1.2%"))
	assert.Equal(t, JobType, pub.msgType)
	assert.Zero(t, h.calls.Load())

	raw, err := json.Marshal(pub.payload)
	require.NoError(t, err)
	require.NoError(t, NewDeliveryJob(n).Handle(context.Background(), raw))

	require.Len(t, h.payloads, 1)
	assert.Equal(t, usernameMacro, h.payloads[0].Username)
	assert.Equal(t, "Macro: CPI 05:30", h.payloads[0].Embeds[0].Fields[0].Value)
}

func TestBiasAndOptionLines(t *testing.T) {
	d := 3
	b := models.BiasSnapshot{DDOI: "neg", EarningsDate: "2025-03-06", EarningsDaysTo: &d, ERDir: "up", ERConf: 0.62}
	assert.Equal(t, "DDOI neg • E:2025-03-06 (3d) • ER:up 62%", BiasLine(b))
	assert.Equal(t, "DDOI –", BiasLine(models.BiasSnapshot{}))
	assert.Equal(t, "CALL 105.00 2025-03-13 Δ0.35 @1.02 (DTE 10, spr 4.0%, OI 2000, ROI 294.1%)", OptionLine(sampleSetup().Option))
}
