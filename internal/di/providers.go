package di

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"ICTWatch/internal/domain/repository"
	"ICTWatch/internal/handler/api"
	internalrepo "ICTWatch/internal/repository"
	"ICTWatch/internal/service/discord"
	"ICTWatch/internal/service/finnhub"
	"ICTWatch/internal/service/polygon"
	"ICTWatch/internal/service/ratelimit"
	"ICTWatch/internal/services/macro"
	"ICTWatch/internal/usecase"
	"ICTWatch/pkg/cache"
	pkgch "ICTWatch/pkg/clickhouse"
	"ICTWatch/pkg/config"
	xhttp "ICTWatch/pkg/http"
	pkgkafka "ICTWatch/pkg/kafka"
	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/metrics"
	"ICTWatch/pkg/queue"
	"ICTWatch/pkg/server"
	"ICTWatch/pkg/util"
)

const (
	userAgent   = "ictwatch/1.0"
	cachePrefix = "ictwatch:cache"
	queuePrefix = "ictwatch:discord"
	cacheL1TTL  = 30 * time.Second
	cacheSweep  = 5 * time.Minute
	logFlush    = time.Minute
	logBurst    = 100
	kafkaBatch  = 50 * time.Millisecond
	liveTimeout = 8 * time.Hour
)

// ProvideLocation resolves the schedule and journal timezone.
func ProvideLocation(cfg *config.Config) *time.Location {
	return cfg.Location()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cachePrefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache layers memory over Redis when Redis is available, so response
// caching and live dedupe are shared across processes.
func ProvideCache(rc *cache.RedisCache) (cache.Service, func()) {
	var c cache.Service
	if rc != nil {
		c = cache.NewLayeredCache(rc, cacheL1TTL, cache.WithMemoryCleanup(cacheSweep))
	} else {
		c = cache.NewMemoryCache(cache.WithMemoryCleanup(cacheSweep))
	}
	// the layered cache does not own rc; ProvideRedisCache closes it
	return c, func() {
		if rc == nil {
			_ = c.Close()
		}
	}
}

func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideMarketData creates the Polygon client.
func ProvideMarketData(cfg *config.Config, limiter *ratelimit.Limiter, c cache.Service, m repository.Metrics, log *logger.Logger) repository.MarketData {
	httpc := xhttp.NewClient(xhttp.WithTimeout(cfg.Polygon.Timeout), xhttp.WithUserAgent(userAgent))
	return polygon.New(polygon.Config{
		APIKey:      cfg.Polygon.APIKey,
		BaseURL:     cfg.Polygon.BaseURL,
		RatePerSec:  cfg.Polygon.RatePerSec,
		Burst:       cfg.Polygon.Burst,
		BarsTTL:     cfg.Polygon.BarsTTL,
		ChainTTL:    cfg.Polygon.ChainTTL,
		EarningsTTL: cfg.Polygon.EarningsTTL,
	}, httpc, limiter, c, m, log)
}

// ProvideDeliveryPublisher returns the queue used for async webhook posts, or
// nil when posts go inline.
func ProvideDeliveryPublisher(cfg *config.Config, rc *cache.RedisCache, log *logger.Logger) (queue.Publisher, error) {
	if !cfg.Discord.Async || rc == nil {
		return nil, nil
	}
	q, err := queue.NewRedisPublisher(log, rc.Client(), queue.WithKeyPrefix(queuePrefix))
	if err != nil {
		return nil, fmt.Errorf("delivery publisher: %w", err)
	}
	return q, nil
}

// ProvideNotifier creates the Discord notifier.
func ProvideNotifier(cfg *config.Config, pub queue.Publisher, m repository.Metrics, log *logger.Logger) *discord.Notifier {
	httpc := xhttp.NewClient(xhttp.WithTimeout(cfg.Discord.Timeout), xhttp.WithUserAgent(userAgent))
	var opts []discord.Option
	if pub != nil {
		opts = append(opts, discord.WithAsync(pub))
	}
	return discord.NewNotifier(discord.Config{
		WatchlistWebhook: cfg.Discord.WatchlistWebhook,
		EntriesWebhook:   cfg.Discord.EntriesWebhook,
		MacroWebhook:     cfg.Discord.MacroWebhook,
		MaxRetries:       cfg.Discord.MaxRetries,
	}, httpc, m, log, opts...)
}

// ProvideDeliveryConsumer drains queued webhook posts; nil when async is off.
func ProvideDeliveryConsumer(cfg *config.Config, rc *cache.RedisCache, n *discord.Notifier, log *logger.Logger) *queue.RedisQueue {
	if !cfg.Discord.Async || rc == nil {
		return nil
	}
	return queue.NewRedisConsumer(log, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.MaxAttempts,
	}, rc.Client(), []queue.Job{discord.NewDeliveryJob(n)}, queue.WithKeyPrefix(queuePrefix))
}

// ProvideClickHouseClient connects and creates the journal table when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithDialTimeout(cfg.ClickHouse.DialTimeout),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.JournalSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates the setup stream producer when Kafka is
// enabled and ships aggregated error logs through it.
func ProvideKafkaProducer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(kafkaBatch),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.LogTopic != "" {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   logFlush,
			CountThreshold: logBurst,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return producer, func() {
		log.RemoveCollector()
		_ = producer.Close()
	}, nil
}

// ProvideArchive is the ClickHouse journal, or nil when ClickHouse is off.
func ProvideArchive(cfg *config.Config, ch *pkgch.Client, log *logger.Logger) *internalrepo.ClickHouseJournal {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseJournal(ch, cfg.ClickHouse.Database, log)
}

// ProvideJournal returns the CSV journal. Without Kafka the ClickHouse
// archive is written inline as a mirror; with Kafka the archive consumer
// fills it from the setup stream.
func ProvideJournal(cfg *config.Config, archive *internalrepo.ClickHouseJournal, log *logger.Logger) repository.Journal {
	csv := internalrepo.NewCSVJournal(cfg.Journal.Path, log)
	if archive == nil || cfg.Kafka.Enabled {
		return csv
	}
	return internalrepo.NewMultiJournal(csv, log, archive)
}

// ProvideSetupPublisher streams setups to Kafka, or drops them when disabled.
func ProvideSetupPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.SetupPublisher {
	if producer == nil {
		return internalrepo.NopSetupPublisher{}
	}
	return internalrepo.NewKafkaSetupPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer archives the setup stream into ClickHouse. It is nil
// unless both Kafka and ClickHouse are enabled.
func ProvideKafkaConsumer(cfg *config.Config, archive *internalrepo.ClickHouseJournal, loc *time.Location, m repository.Metrics, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || archive == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewSetupArchiveHandler(cfg.Kafka.Topic, archive, loc, m))
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, _ kafkago.Message, _ error) {
			m.RecordError("archive_" + topic)
		},
	})
	return consumer, nil
}

// ProvideAnalyzer maps the scan, detector and scoring config onto the analyzer.
func ProvideAnalyzer(cfg *config.Config, md repository.MarketData, loc *time.Location, m repository.Metrics, log *logger.Logger) *usecase.SetupAnalyzer {
	return usecase.NewSetupAnalyzer(md, usecase.AnalyzerConfig{
		LookbackDays:   cfg.Scan.LookbackDays,
		TimeframeMin:   cfg.Scan.TimeframeMin,
		MinBars:        cfg.Scan.MinBars,
		ATRWindow:      cfg.Scan.ATRWindow,
		EarningsDays:   cfg.Scan.EarningsDays,
		HTFLookback:    cfg.Scan.HTFLookback,
		MinScore:       cfg.Scan.MinScore,
		SwingN:         cfg.Detectors.SwingN,
		BOSATRMult:     cfg.Detectors.BOSATRMult,
		FVGATRMult:     cfg.Detectors.FVGATRMult,
		OBLookback:     cfg.Detectors.OBLookback,
		LiquidityTol:   cfg.Detectors.LiquidityTol,
		ProjectionMode: cfg.Projection.Mode,
		ProjectionDays: cfg.Projection.Days,
		ProjectionMin:  cfg.Projection.Min,
		ProjectionMax:  cfg.Projection.Max,
		Weights:        cfg.Weights,
		Options:        cfg.Options,
		GEX:            cfg.GEX,
		Loc:            loc,
	}, m, log)
}

// ProvideScanner scans the configured universe, falling back to the
// built-in list.
func ProvideScanner(cfg *config.Config, analyzer usecase.SymbolAnalyzer, m repository.Metrics, log *logger.Logger) *usecase.Scanner {
	src := usecase.UniverseSource{
		File:     cfg.Universe.File,
		Symbols:  cfg.Universe.Symbols,
		Fallback: config.DefaultUniverse,
		Max:      cfg.Universe.MaxSymbols,
		Log:      log.With("universe"),
	}
	return usecase.NewScanner(analyzer, src.Load, cfg.Scan.MaxConcurrency, cfg.Scan.Timeout, m, log)
}

func ProvideCalendar(cfg *config.Config, c cache.Service, loc *time.Location, log *logger.Logger) *macro.Calendar {
	httpc := xhttp.NewClient(xhttp.WithTimeout(cfg.Macro.Timeout), xhttp.WithUserAgent(userAgent))
	return macro.NewCalendar(macro.Config{
		URL:          cfg.Macro.ICSURL,
		BlockMinutes: cfg.Macro.BlockMinutes,
		MaxShown:     cfg.Macro.MaxShown,
	}, httpc, c, loc, log)
}

func ProvideSectorBoard(md repository.MarketData, log *logger.Logger) *usecase.SectorBoard {
	return usecase.NewSectorBoard(md, log)
}

func ProvideWatchlist(
	cfg *config.Config,
	scanner usecase.SetupScanner,
	macroSrc usecase.MacroSource,
	sectors usecase.SectorSource,
	notifier repository.Notifier,
	journal repository.Journal,
	publisher repository.SetupPublisher,
	loc *time.Location,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Watchlist {
	return usecase.NewWatchlist(scanner, macroSrc, sectors, notifier, journal, publisher, usecase.WatchlistConfig{
		Rows:           cfg.Scan.WatchlistRows,
		EntryAlerts:    cfg.Scan.EntryAlerts,
		MinScore:       cfg.Scan.MinScore,
		ProjectionMin:  cfg.Projection.Min,
		ProjectionMax:  cfg.Projection.Max,
		ProjectionDays: cfg.Projection.Days,
		Loc:            loc,
	}, m, log)
}

func ProvideMacroPost(macroSrc usecase.MacroSource, sectors usecase.SectorSource, notifier repository.Notifier, loc *time.Location, log *logger.Logger) *usecase.MacroPost {
	return usecase.NewMacroPost(macroSrc, sectors, notifier, loc, log)
}

// ProvideMarketStream creates the Finnhub trade stream.
func ProvideMarketStream(cfg *config.Config, log *logger.Logger) repository.MarketStream {
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.WebSocketURL, cfg.Finnhub.ReconnectDelay, cfg.Finnhub.PingInterval, log)
}

// ProvideLiveMonitor parses the session window; a malformed clock is a
// config error.
func ProvideLiveMonitor(
	cfg *config.Config,
	scanner usecase.SetupScanner,
	stream repository.MarketStream,
	macroSrc usecase.MacroSource,
	notifier repository.Notifier,
	journal repository.Journal,
	publisher repository.SetupPublisher,
	dedupe cache.Service,
	loc *time.Location,
	m repository.Metrics,
	log *logger.Logger,
) (*usecase.LiveMonitor, error) {
	start, err := util.ParseClock(cfg.Live.Start)
	if err != nil {
		return nil, fmt.Errorf("live.start: %w", err)
	}
	end, err := util.ParseClock(cfg.Live.End)
	if err != nil {
		return nil, fmt.Errorf("live.end: %w", err)
	}
	return usecase.NewLiveMonitor(scanner, stream, macroSrc, notifier, journal, publisher, dedupe, usecase.LiveConfig{
		MaxSymbols:   cfg.Live.MaxSymbols,
		Tolerance:    cfg.Live.Tolerance,
		SessionStart: start,
		SessionEnd:   end,
		DedupeTTL:    cfg.Live.DedupeTTL,
		MaxRPS:       cfg.Live.MaxRPS,
		RetryBuffer:  cfg.Live.RetryBuffer,
		Loc:          loc,
	}, m, log), nil
}

func ProvideJournalHandler(cfg *config.Config, journal repository.Journal, log *logger.Logger) *api.JournalEchoHandler {
	return api.NewJournalEchoHandler(log, journal, cfg.Journal.APIKey)
}

func ProvideScheduler(loc *time.Location, log *logger.Logger) *server.Scheduler {
	return server.NewScheduler(loc, log)
}

// ProvideJobs names the CLI subcommands and attaches their cron specs.
func ProvideJobs(cfg *config.Config, wl *usecase.Watchlist, mp *usecase.MacroPost, live *usecase.LiveMonitor) []server.Job {
	post := func(kind string) func(context.Context) error {
		return func(ctx context.Context) error { return wl.Post(ctx, kind) }
	}
	liveSpec := ""
	if cfg.Live.Enabled {
		liveSpec = cfg.Schedule.Live
	}
	return []server.Job{
		{Name: "premarket", Spec: cfg.Schedule.Premarket, Timeout: cfg.Scan.Timeout, Run: post("premarket")},
		{Name: "evening", Spec: cfg.Schedule.Evening, Timeout: cfg.Scan.Timeout, Run: post("evening")},
		{Name: "weekly", Spec: cfg.Schedule.Weekly, Timeout: cfg.Scan.Timeout, Run: post("weekly")},
		{Name: "macro", Spec: cfg.Schedule.Macro, Timeout: cfg.Macro.Timeout * 2, Run: mp.Post},
		{Name: "live", Spec: liveSpec, Timeout: liveTimeout, Run: live.Run},
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler *api.JournalEchoHandler,
	consumer *pkgkafka.Consumer,
	deliveries *queue.RedisQueue,
	scheduler *server.Scheduler,
	jobs []server.Job,
) *server.App {
	return server.New(cfg, log, handler, consumer, deliveries, scheduler, jobs...)
}

// Backtester bundles what cmd/backtest needs.
type Backtester struct {
	Runner   *usecase.BacktestRunner
	Journal  repository.Journal
	Notifier repository.Notifier
	Loc      *time.Location
}

func ProvideBacktestRunner(cfg *config.Config, md repository.MarketData, m repository.Metrics, log *logger.Logger) *usecase.BacktestRunner {
	return usecase.NewBacktestRunner(md, usecase.BacktestConfig{
		Days:        cfg.Backtest.Days,
		TFMin:       cfg.Backtest.TFMin,
		Concurrency: cfg.Backtest.Concurrency,
	}, m, log)
}
