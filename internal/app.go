package internal

import (
	"context"
	"errors"
	"fmt"
	"leetfresh/internal/controllers"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/scheduler"
	"leetfresh/internal/services"
	"leetfresh/internal/storage"
	"leetfresh/internal/structures"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	WebServer    *http.Server
	conf         *structures.Config
	logger       providers.Logger
	scheduler    scheduler.SchedulerInterface
	orchestrator services.SyncOrchestratorInterface
	store        storage.Store
}

func NewApp(
	healthController *controllers.HealthController,
	sched scheduler.SchedulerInterface,
	orchestrator services.SyncOrchestratorInterface,
	store storage.Store,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) *App {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	routes := router.GetRoutes()
	urls := make([]string, 0, len(routes))
	for _, route := range routes {
		apiMux.Handle(route.Url, route.Handler)
		urls = append(urls, route.Url)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, urls, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:         conf,
		logger:       logger,
		scheduler:    sched,
		orchestrator: orchestrator,
		store:        store,
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// everything down in order.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Infof(providers.TypeApp, "Starting %s", app.conf.AppName)
	if err := app.scheduler.Restore(ctx); err != nil {
		app.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	if app.conf.Path != "" {
		providers.WatchLogLevel(app.conf, app.logger)
	}
	app.scheduler.Init()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if app.conf.Sync.SyncOnStart {
		g.Go(func() error {
			_, _ = app.orchestrator.Run(gctx, services.TriggerPageLoad, models.SyncRequest{})
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
		app.scheduler.Stop()
		app.orchestrator.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.WebServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if cerr := app.store.Close(); cerr != nil {
		app.logger.Errorf(providers.TypeApp, "Failed to close store: %s", cerr)
	}
	if err != nil {
		return err
	}
	app.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
