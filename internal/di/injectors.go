//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"leetfresh/internal"
	"leetfresh/internal/controllers"
	"leetfresh/internal/leetcode"
	"leetfresh/internal/providers"
	"leetfresh/internal/render"
	"leetfresh/internal/scheduler"
	"leetfresh/internal/services"
	"leetfresh/internal/storage"
	"leetfresh/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewHTTPClientProvider,
		providers.NewBreakerProvider,

		leetcode.IsTransportFailure,
		leetcode.NewClient,
		leetcode.NewFetcher,
		leetcode.NewIdentityResolver,

		storage.NewZstdCompressor,
		storage.NewStore,

		services.NewFreshnessCache,
		render.NewAnnotator,
		services.NewPageRegistry,
		services.NewSyncOrchestrator,
		scheduler.NewScheduler,

		controllers.NewApiController,
		controllers.NewPagesController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
