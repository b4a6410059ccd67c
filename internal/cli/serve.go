package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/composable/internal/config"
	httpAdapter "github.com/aretw0/composable/pkg/adapters/http"
	"github.com/aretw0/composable/pkg/adapters/middleware"
	"github.com/aretw0/composable/pkg/adapters/redis"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/observability"
	"github.com/aretw0/composable/pkg/ports"
	"github.com/aretw0/composable/pkg/store"
)

// Runtime is a hosted feature wired with the observability and transports
// chosen in the configuration.
type Runtime struct {
	Hosted  *Hosted
	Handler http.Handler
	Tracing *observability.Tracing

	cfg       config.Config
	logger    *slog.Logger
	publisher *redis.Publisher
	sink      ports.SnapshotPublisher
}

// Build hosts feature with the hooks, handler and mirror described by cfg.
func Build(ctx context.Context, cfg config.Config, feature string, deps Deps, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{cfg: cfg, logger: logger}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger)}
	handlerOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(
			observability.WithRegistry(registry),
			observability.WithNamespace(cfg.Metrics.Namespace),
		)
		hooks = append(hooks, metrics.Hooks())
		handlerOpts = append(handlerOpts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	if cfg.Tracing.Enabled {
		rt.Tracing = observability.NewTracing(observability.WithTracerName(cfg.Tracing.Name))
		hooks = append(hooks, rt.Tracing.Hooks())
	}

	hosted, err := Host(feature, deps,
		store.WithContext(ctx),
		store.WithLogger(logger),
		store.WithLifecycleHooks(domain.ComposeHooks(hooks...)),
	)
	if err != nil {
		return nil, err
	}
	rt.Hosted = hosted
	rt.Handler = httpAdapter.NewHandler(hosted, handlerOpts...)

	if cfg.Redis.Addr != "" {
		rt.publisher = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		redact, err := middleware.NewRedaction(cfg.Redis.Redact)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.sink = middleware.Chain(rt.publisher, redact)
	}
	return rt, nil
}

// Mirror publishes the snapshots of the hosted store to Redis until ctx is
// done. A lease keeps replicas hosting the same store id from interleaving
// their snapshots; Mirror waits for it. Without Redis it returns at once.
func (rt *Runtime) Mirror(ctx context.Context) error {
	if rt.publisher == nil {
		return nil
	}
	locker := redis.NewLocker(rt.publisher.Client(), rt.cfg.Redis.Prefix)
	unlock, err := locker.Lock(ctx, "mirror:"+rt.Hosted.ID(), 0)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := unlock(releaseCtx); err != nil {
			rt.logger.Warn("mirror lease release failed", "store_id", rt.Hosted.ID(), "err", err)
		}
	}()

	rt.logger.Info("mirroring snapshots to redis", "store_id", rt.Hosted.ID(), "channel", rt.publisher.Channel(rt.Hosted.ID()))
	observability.Mirror(ctx, rt.Hosted, rt.sink, rt.logger)
	return nil
}

// Close stops the hosted store and the Redis client.
func (rt *Runtime) Close() {
	rt.Hosted.Close()
	if rt.publisher != nil {
		_ = rt.publisher.Client().Close()
	}
}

// Serve runs the HTTP server of rt until ctx is done, then shuts it down
// within the configured timeout.
func Serve(ctx context.Context, rt *Runtime) error {
	srv := &http.Server{
		Addr:              rt.cfg.HTTP.Addr,
		Handler:           rt.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		rt.logger.Info("HTTP server listening", "address", srv.Addr, "store_id", rt.Hosted.ID())
		serverErrors <- srv.ListenAndServe()
	}()

	go func() {
		if err := rt.Mirror(ctx); err != nil && ctx.Err() == nil {
			rt.logger.Error("redis mirror stopped", "err", err)
		}
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", rt.cfg.HTTP.ShutdownTimeout, err)
		}
		return nil
	}
}
