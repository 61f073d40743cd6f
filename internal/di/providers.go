package di

import (
	"context"
	"fmt"
	"time"

	"PriceQuery/internal/domain/repository"
	"PriceQuery/internal/handler/api"
	internalrepo "PriceQuery/internal/repository"
	"PriceQuery/internal/service/ratelimit"
	"PriceQuery/internal/services/adjust"
	"PriceQuery/internal/services/calendar"
	"PriceQuery/internal/services/catalog"
	"PriceQuery/internal/usecase"
	pkgcache "PriceQuery/pkg/cache"
	pkgch "PriceQuery/pkg/clickhouse"
	"PriceQuery/pkg/config"
	"PriceQuery/pkg/http/middleware"
	pkgkafka "PriceQuery/pkg/kafka"
	applogger "PriceQuery/pkg/logger"
	"PriceQuery/pkg/metrics"
	"PriceQuery/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates the ClickHouse client and applies the
// schema unless skipped. Calendar and factors always come from ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.Query.Workers*2, cfg.Query.Workers),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if !cfg.ClickHouse.SkipSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema(cfg.ClickHouse.Database)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	l.Info("clickhouse ready", applogger.String("database", cfg.ClickHouse.Database))

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideCHReference creates the ClickHouse registry, calendar and factor
// source.
func ProvideCHReference(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHReference {
	ref := internalrepo.NewCHReference(ch, cfg.ClickHouse.Database)
	ref.SetLogger(l)
	return ref
}

// ProvideSecurityRegistry picks the registry backend.
func ProvideSecurityRegistry(cfg *config.Config, ref *internalrepo.CHReference, l *applogger.Logger) (repository.SecurityRegistry, func(), error) {
	if cfg.Backend.Registry != "postgres" {
		return ref, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reg, err := internalrepo.NewPGRegistry(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres registry: %w", err)
	}
	if err := reg.InitSchema(ctx); err != nil {
		reg.Close()
		return nil, nil, fmt.Errorf("postgres schema: %w", err)
	}
	reg.SetLogger(l)
	l.Info("postgres registry ready")
	return reg, reg.Close, nil
}

// ProvideParquetStore creates the parquet bar store. It is the query store
// when backend.bars is parquet and the export sink otherwise.
func ProvideParquetStore(cfg *config.Config, l *applogger.Logger) *internalrepo.ParquetBarStore {
	s := internalrepo.NewParquetBarStore(cfg.Parquet.BaseDir)
	s.SetLogger(l)
	return s
}

// ProvideRedisCache connects to Redis when enabled and returns nil
// otherwise.
func ProvideRedisCache(cfg *config.Config, l *applogger.Logger) (*pkgcache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, 5*time.Second),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache ready", applogger.String("addr", cfg.Redis.Addr))
	cleanup := func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return rc, cleanup, nil
}

// ProvideCachedBarStore wraps the raw bar store in the layered cache, or
// returns nil when Redis is disabled.
func ProvideCachedBarStore(
	cfg *config.Config,
	ch *pkgch.Client,
	pq *internalrepo.ParquetBarStore,
	rc *pkgcache.RedisCache,
	m repository.Metrics,
	l *applogger.Logger,
) (*internalrepo.CachedBarStore, func()) {
	if rc == nil {
		return nil, func() {}
	}
	layered := pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemory(cfg.Redis.MemorySize, cfg.Redis.MemoryTTL))
	s := internalrepo.NewCachedBarStore(rawBarStore(cfg, ch, pq, l), layered, cfg.Redis.BarsTTL, m)
	s.SetLogger(l)
	// closes only the memory layer; Redis has its own cleanup
	return s, func() { _ = layered.Close() }
}

// ProvideBarStore returns the store queries read from.
func ProvideBarStore(
	cfg *config.Config,
	ch *pkgch.Client,
	pq *internalrepo.ParquetBarStore,
	cached *internalrepo.CachedBarStore,
	l *applogger.Logger,
) repository.BarStore {
	if cached != nil {
		return cached
	}
	return rawBarStore(cfg, ch, pq, l)
}

func rawBarStore(cfg *config.Config, ch *pkgch.Client, pq *internalrepo.ParquetBarStore, l *applogger.Logger) repository.BarStore {
	if cfg.Backend.Bars == "parquet" {
		return pq
	}
	s := internalrepo.NewCHBarStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideBarInvalidator exposes the cache for bar refreshes. It is a nil
// interface when nothing is cached.
func ProvideBarInvalidator(cached *internalrepo.CachedBarStore) usecase.BarInvalidator {
	if cached == nil {
		return nil
	}
	return cached
}

// ProvideAuditPublisher creates the Kafka audit publisher when Kafka is
// enabled.
func ProvideAuditPublisher(cfg *config.Config, l *applogger.Logger) (repository.AuditPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithBatching(100, 200*time.Millisecond),
		pkgkafka.WithAsync(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.AuditTopic), cleanup, nil
}

func ProvideCalendar(ref *internalrepo.CHReference, l *applogger.Logger) *calendar.Service {
	return calendar.NewService(ref, calendar.YearEndHorizon{}, l)
}

func ProvideCatalog(reg repository.SecurityRegistry, m repository.Metrics, cfg *config.Config) *catalog.Catalog {
	return catalog.New(reg, m, cfg.Query.CatalogTTL)
}

func ProvideFactorCache(ref *internalrepo.CHReference, m repository.Metrics) *adjust.FactorCache {
	return adjust.NewFactorCache(ref, m)
}

func ProvideAdjustEngine(cfg *config.Config) *adjust.Engine {
	return adjust.NewEngine(adjust.WithPriceDecimals(cfg.Query.PriceDecimals))
}

// ProvidePriceUseCase creates the query orchestrator.
func ProvidePriceUseCase(
	cfg *config.Config,
	bars repository.BarStore,
	cal *calendar.Service,
	cat *catalog.Catalog,
	factors *adjust.FactorCache,
	engine *adjust.Engine,
	m repository.Metrics,
	audit repository.AuditPublisher,
	l *applogger.Logger,
) *usecase.PriceUseCase {
	opts := []usecase.PriceOption{
		usecase.WithWorkers(cfg.Query.Workers),
		usecase.WithLogger(l),
	}
	if audit != nil {
		opts = append(opts, usecase.WithAudit(audit))
	}
	return usecase.NewPriceUseCase(bars, cal, cat, factors, engine, m, opts...)
}

func ProvideReferenceUseCase(cat *catalog.Catalog, cal *calendar.Service, m repository.Metrics) *usecase.ReferenceUseCase {
	return usecase.NewReferenceUseCase(cat, cal, m)
}

func ProvideRefreshUseCase(
	cfg *config.Config,
	cal *calendar.Service,
	factors *adjust.FactorCache,
	cat *catalog.Catalog,
	inv usecase.BarInvalidator,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.RefreshUseCase {
	return usecase.NewRefreshUseCase(cfg.Kafka.RefreshTopic, cal, factors, cat, inv, m, l)
}

// ProvideExportUseCase copies from the query store into parquet. It is nil
// when parquet is already the query store.
func ProvideExportUseCase(
	cfg *config.Config,
	bars repository.BarStore,
	pq *internalrepo.ParquetBarStore,
	cal *calendar.Service,
	l *applogger.Logger,
) *usecase.ExportUseCase {
	if cfg.Backend.Bars == "parquet" {
		return nil
	}
	return usecase.NewExportUseCase(bars, pq, cal, l)
}

// ProvideHealthChecks lists the dependencies probed by /healthz.
func ProvideHealthChecks(ch *pkgch.Client, reg repository.SecurityRegistry, rc *pkgcache.RedisCache) []api.HealthCheck {
	checks := []api.HealthCheck{{Name: "clickhouse", Check: ch.Health}}
	if pg, ok := reg.(*internalrepo.PGRegistry); ok {
		checks = append(checks, api.HealthCheck{Name: "postgres", Check: pg.Health})
	}
	if rc != nil {
		checks = append(checks, api.HealthCheck{Name: "redis", Check: rc.Health})
	}
	return checks
}

func ProvideQueryHandler(
	l *applogger.Logger,
	price *usecase.PriceUseCase,
	ref *usecase.ReferenceUseCase,
	refresh *usecase.RefreshUseCase,
	export *usecase.ExportUseCase,
	checks []api.HealthCheck,
) *api.QueryEchoHandler {
	return api.NewQueryEchoHandler(l, price, ref, refresh, export, checks...)
}

// ProvideRateLimiter returns a per-client token bucket, or nil when the
// configured rate is zero.
func ProvideRateLimiter(cfg *config.Config) middleware.Allower {
	rl := cfg.Server.RateLimit
	if rl.PerSecond <= 0 {
		return nil
	}
	return ratelimit.New(rl.Burst, rl.PerSecond)
}

// ProvideKafkaConsumer creates the refresh consumer when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config, refresh *usecase.RefreshUseCase, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	kc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers, kc.BufferSize),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	consumer.RegisterHandler(refresh)
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.QueryEchoHandler,
	limiter middleware.Allower,
	consumer *pkgkafka.Consumer,
) *server.App {
	return server.New(cfg, l, handler, limiter, consumer)
}
