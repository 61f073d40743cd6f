//go:build wireinject
// +build wireinject

package di

import (
	"PriceQuery/pkg/config"
	"PriceQuery/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application and
// a cleanup that closes the infrastructure clients.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideAuditPublisher,

		// Repositories
		ProvideCHReference,
		ProvideSecurityRegistry,
		ProvideParquetStore,
		ProvideCachedBarStore,
		ProvideBarStore,
		ProvideBarInvalidator,

		// Domain services
		ProvideCalendar,
		ProvideCatalog,
		ProvideFactorCache,
		ProvideAdjustEngine,

		// Use cases
		ProvidePriceUseCase,
		ProvideReferenceUseCase,
		ProvideRefreshUseCase,
		ProvideExportUseCase,

		// Transport
		ProvideHealthChecks,
		ProvideQueryHandler,
		ProvideRateLimiter,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
