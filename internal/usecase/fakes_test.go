package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/internal/services/macro"
)

type fakeMarket struct {
	mu       sync.Mutex
	bars     map[string][]models.Bar
	daily    map[string][]models.Bar
	barsErr  map[string]error
	chain    []models.OptionContract
	earnings time.Time
	calls    []string
}

func (f *fakeMarket) FetchBars(_ context.Context, symbol string, tf domrepo.Timeframe, _, _ time.Time) ([]models.Bar, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol+"@"+tf.String())
	f.mu.Unlock()
	if err := f.barsErr[symbol]; err != nil {
		return nil, err
	}
	if tf.Timespan == domrepo.Day {
		return f.daily[symbol], nil
	}
	return f.bars[symbol], nil
}

func (f *fakeMarket) FetchOptionsChain(context.Context, string) ([]models.OptionContract, error) {
	return f.chain, nil
}

func (f *fakeMarket) FetchNextEarningsDate(context.Context, string) (time.Time, bool, error) {
	return f.earnings, !f.earnings.IsZero(), nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	watchlist [][]string
	titles    []string
	entries   []*models.Setup
	macro     []string
	failEntry int
}

func (n *fakeNotifier) SendWatchlist(_ context.Context, title string, lines []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.watchlist = append(n.watchlist, lines)
	return nil
}

func (n *fakeNotifier) SendEntry(_ context.Context, s *models.Setup) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failEntry > 0 {
		n.failEntry--
		return errors.New("webhook down")
	}
	n.entries = append(n.entries, s)
	return nil
}

func (n *fakeNotifier) SendMacro(_ context.Context, title, macroLine, sectorsLine string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.macro = append(n.macro, title, macroLine, sectorsLine)
	return nil
}

type memJournal struct {
	mu   sync.Mutex
	rows []models.JournalRow
}

func (j *memJournal) Append(_ context.Context, rows ...models.JournalRow) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, rows...)
	return nil
}

func (j *memJournal) ReadLast(_ context.Context, n int) ([]models.JournalRow, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n > 0 && n < len(j.rows) {
		return j.rows[len(j.rows)-n:], nil
	}
	return j.rows, nil
}

func (j *memJournal) kinds() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.rows))
	for i, r := range j.rows {
		out[i] = r["kind"]
	}
	return out
}

type fakePublisher struct {
	mu    sync.Mutex
	kinds []string
}

func (p *fakePublisher) Publish(_ context.Context, kind string, _ *models.Setup) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, kind)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMacro struct {
	all      []macro.Event
	blocking []macro.Event
}

func (m fakeMacro) Today(context.Context, time.Time) ([]macro.Event, []macro.Event) {
	return m.all, m.blocking
}

func (m fakeMacro) Header(evs []macro.Event) string {
	return macro.Header(evs, 30*time.Minute, 4)
}

type fakeSectors string

func (s fakeSectors) Line(context.Context) string { return string(s) }

type staticScanner []*models.Setup

func (s staticScanner) Scan(context.Context) []*models.Setup { return s }
