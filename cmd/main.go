package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/okian/draftnexus/internal/adapters/http/api"
	"github.com/okian/draftnexus/internal/adapters/onnx"
	"github.com/okian/draftnexus/internal/adapters/publisher"
	"github.com/okian/draftnexus/internal/adapters/repository"
	app "github.com/okian/draftnexus/internal/app"
	"github.com/okian/draftnexus/internal/config"
	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/internal/domain/scoring"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	redisPingTimeout          = 3 * time.Second
	resubscribeDelay          = time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	source, closeSource, err := buildRosterSource(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open roster source", logger.Error(err))
		return
	}
	defer func() {
		if err := closeSource(); err != nil {
			loggerInstance.Warn(ctx, "roster source close failed", logger.Error(err))
		}
	}()

	svc := app.New(
		app.WithLogger(loggerInstance.Named("service")),
		app.WithRosterSource(source),
		app.WithScoringFactory(buildScoringFactory(cfg)),
		app.WithTopK(cfg.TopK),
		app.WithSerializedScoring(cfg.SerializeScoring),
		app.WithInferenceTimeout(time.Duration(cfg.InferenceTimeoutMS)*time.Millisecond),
		app.WithSubscriberBuffer(cfg.SubscriberBuffer),
	)
	// Catalog and model failures are reported through the draft message;
	// only a stopped service refuses to start.
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if cfg.RedisAddr != "" {
		closeRedis, err := startPublisher(ctx, cfg, svc)
		if err != nil {
			loggerInstance.Warn(ctx, "snapshot publisher disabled", logger.String("redis_addr", cfg.RedisAddr), logger.Error(err))
		} else {
			defer closeRedis()
		}
	}

	go startSystemMetricsUpdater(ctx)

	apiServer := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.Origins()),
		api.WithRecommendationLimits(cfg.TopK, cfg.MaxRecommendationLimit),
		api.WithSubscriberBuffer(cfg.SubscriberBuffer),
	)
	srv := newHTTPServer(cfg.Addr, apiServer.Routes(ctx))

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// buildRosterSource opens the configured roster source. The returned close
// function is always non-nil.
func buildRosterSource(cfg *config.Config) (hero.Source, func() error, error) {
	switch cfg.RosterSource {
	case config.SourcePostgres:
		db, err := repository.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, func() error { return nil }, err
		}
		src := repository.NewPostgresSource(db)
		return src, src.Close, nil
	default:
		return repository.NewFileSource(cfg.RosterPath), func() error { return nil }, nil
	}
}

// buildScoringFactory selects the scoring runtime. The runtime is opened by
// the service on Start.
func buildScoringFactory(cfg *config.Config) scoring.Factory {
	if cfg.ScoringRuntime == config.RuntimeSimulated {
		return scoring.SimulatedFactory(scoring.WithLatencyRange(
			time.Duration(cfg.ScoringLatencyMinMS)*time.Millisecond,
			time.Duration(cfg.ScoringLatencyMaxMS)*time.Millisecond,
		))
	}
	var opts []onnx.Option
	if cfg.ONNXLibraryPath != "" {
		opts = append(opts, onnx.WithLibraryPath(cfg.ONNXLibraryPath))
	}
	return onnx.Factory(cfg.ModelPath, opts...)
}

// startPublisher connects to Redis and mirrors every snapshot to the
// configured stream until ctx is done.
func startPublisher(ctx context.Context, cfg *config.Config, svc *app.Service) (func(), error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	pub := publisher.NewStreamPublisher(client,
		publisher.WithStream(cfg.RedisStream),
		publisher.WithMaxLen(cfg.RedisStreamMaxLen),
	)
	go runPublisher(ctx, svc, pub, cfg.SubscriberBuffer)

	return func() { _ = client.Close() }, nil
}

// runPublisher keeps a subscription open for the publisher. The draft store
// drops slow subscribers, so a closed channel is followed by a resubscribe.
func runPublisher(ctx context.Context, svc *app.Service, pub *publisher.StreamPublisher, buffer int) {
	log := logger.Named("publisher")
	for ctx.Err() == nil {
		updates, unsubscribe, err := svc.Subscribe(ctx, buffer)
		if err != nil {
			log.Warn(ctx, "publisher subscribe failed", logger.Error(err))
			return
		}
		pub.Run(ctx, updates)
		unsubscribe()

		select {
		case <-ctx.Done():
		case <-time.After(resubscribeDelay):
		}
	}
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
