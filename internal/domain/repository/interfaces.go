package repository

import (
	"context"
	"time"

	"ICTWatch/internal/domain/models"
)

// MarketData is the historical bars / options / earnings collaborator.
type MarketData interface {
	FetchBars(ctx context.Context, symbol string, tf Timeframe, from, to time.Time) ([]models.Bar, error)
	FetchOptionsChain(ctx context.Context, symbol string) ([]models.OptionContract, error)
	// FetchNextEarningsDate returns ok=false when no upcoming report is known.
	FetchNextEarningsDate(ctx context.Context, symbol string) (date time.Time, ok bool, err error)
}

// MarketStream delivers realtime trade prints.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Notifier posts to chat channels.
type Notifier interface {
	SendWatchlist(ctx context.Context, title string, lines []string) error
	SendEntry(ctx context.Context, s *models.Setup) error
	SendMacro(ctx context.Context, title string, macroLine, sectorsLine string) error
}

// Journal is the append-only trade log.
type Journal interface {
	Append(ctx context.Context, rows ...models.JournalRow) error
	// ReadLast returns the most recent n rows in file order.
	ReadLast(ctx context.Context, n int) ([]models.JournalRow, error)
}

// SetupPublisher streams accepted setups to downstream consumers.
type SetupPublisher interface {
	Publish(ctx context.Context, kind string, s *models.Setup) error
	Close() error
}

type Metrics interface {
	RecordScan(kind string)
	RecordSetup(symbol string, score float64)
	RecordReject(reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordBacktest(realizedR float64)
	RecordNotify(channel, result string)
	RecordLastPrice(symbol string, price float64)
}
