//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ICTWatch/internal/domain/repository"
	"ICTWatch/internal/service/discord"
	"ICTWatch/internal/services/macro"
	"ICTWatch/internal/usecase"
	"ICTWatch/pkg/config"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideLocation,
	ProvideMetrics,
	ProvideRedisCache,
	ProvideCache,
	ProvideLimiter,
	ProvideMarketData,
	ProvideDeliveryPublisher,
	ProvideNotifier,
	wire.Bind(new(repository.Notifier), new(*discord.Notifier)),
	ProvideClickHouseClient,
	ProvideArchive,
	ProvideJournal,
)

var scanSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideSetupPublisher,
	ProvideAnalyzer,
	wire.Bind(new(usecase.SymbolAnalyzer), new(*usecase.SetupAnalyzer)),
	ProvideScanner,
	wire.Bind(new(usecase.SetupScanner), new(*usecase.Scanner)),
	ProvideCalendar,
	wire.Bind(new(usecase.MacroSource), new(*macro.Calendar)),
	ProvideSectorBoard,
	wire.Bind(new(usecase.SectorSource), new(*usecase.SectorBoard)),
	ProvideWatchlist,
	ProvideMacroPost,
	ProvideMarketStream,
	ProvideLiveMonitor,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, log *logger.Logger) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		scanSet,
		ProvideJournalHandler,
		ProvideKafkaConsumer,
		ProvideDeliveryConsumer,
		ProvideScheduler,
		ProvideJobs,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeBacktester wires the backtest CLI.
func InitializeBacktester(cfg *config.Config, log *logger.Logger) (*Backtester, func(), error) {
	wire.Build(
		infraSet,
		ProvideBacktestRunner,
		wire.Struct(new(Backtester), "*"),
	)
	return nil, nil, nil
}
