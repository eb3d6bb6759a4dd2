package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/okian/taskmatch/internal/adapters/http/api"
	"github.com/okian/taskmatch/internal/adapters/http/swagger"
	"github.com/okian/taskmatch/internal/adapters/notify"
	"github.com/okian/taskmatch/internal/adapters/repository"
	app "github.com/okian/taskmatch/internal/app"
	"github.com/okian/taskmatch/internal/config"
	"github.com/okian/taskmatch/internal/domain/report"
	"github.com/okian/taskmatch/internal/domain/scoring"
	"github.com/okian/taskmatch/internal/tracing"
	"github.com/okian/taskmatch/pkg/logger"
	"github.com/okian/taskmatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

const (
	serviceName    = "taskmatch"
	serviceVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		// The logger may not be configured yet.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment alone is enough.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	metrics.Configure(metricsOptions(cfg)...)

	if cfg.Tracing.Enabled {
		if err := tracing.Init(serviceName, serviceVersion, cfg.Tracing.Output); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
				log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
			}
		}()
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	publisher, err := buildPublisher(cfg)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	svc := app.New(serviceOptions(cfg, store, publisher, log)...)
	if err := svc.Start(ctx); err != nil {
		_ = publisher.Close()
		_ = store.Close()
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildStore opens the record store selected by cfg.Store.Driver.
func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case config.StoreDynamoDB:
		return repository.NewDynamoStore(ctx, repository.DynamoConfig{
			Region:       cfg.Store.Region,
			Endpoint:     cfg.Store.Endpoint,
			TasksTable:   cfg.Store.TasksTable,
			WorkersTable: cfg.Store.WorkersTable,
		})
	default:
		return repository.NewMemoryStore(), nil
	}
}

// buildPublisher creates the event publisher selected by cfg.Notify.Driver.
func buildPublisher(cfg *config.Config) (notify.Publisher, error) {
	return notify.New(notify.Config{
		Driver:       cfg.Notify.Driver,
		KafkaBrokers: cfg.Notify.KafkaBrokers,
		KafkaTopic:   cfg.Notify.KafkaTopic,
		NATSURL:      cfg.Notify.NATSURL,
		NATSSubject:  cfg.Notify.NATSSubject,
	})
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config, store repository.Store, pub notify.Publisher, log logger.Logger) []app.Option {
	return []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithPublisher(pub),
		app.WithWorkerCount(cfg.Notify.WorkerCount),
		app.WithQueueSize(cfg.Notify.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithLockStripes(cfg.LockStripes),
		app.WithWeeklyCapacity(cfg.WeeklyCapacityHours),
		// A shared table sees writes from other replicas the cache never hears about.
		app.WithWorkloadCache(strings.EqualFold(cfg.Store.Driver, config.StoreMemory)),
		app.WithMaxCandidatesLimit(cfg.MaxCandidatesLimit),
		app.WithSeedURL(cfg.SeedURL),
		app.WithSnapshotURL(cfg.SnapshotURL),
		app.WithScoringOptions(
			scoring.WithWeights(cfg.SkillWeight, cfg.AvailabilityWeight),
			scoring.WithBonuses(cfg.RelevanceBonus, cfg.PriorityBonus),
			scoring.WithPrioritySkillThreshold(cfg.PrioritySkillThreshold),
			scoring.WithRelevanceFromConfig(cfg.RelevanceKeywords),
		),
		app.WithReportOptions(
			report.WithTopCandidates(cfg.TopCandidates),
			report.WithUrgentDays(cfg.UrgentDays),
			report.WithLargeTaskHours(cfg.LargeTaskHours),
		),
	}
}

// metricsOptions maps the metrics block onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.Metrics.Enabled),
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithMetricPrefix(cfg.Metrics.Prefix),
		metrics.WithHistogramBuckets(cfg.Metrics.Buckets),
		metrics.WithCustomLabels(cfg.Metrics.Labels),
		metrics.WithRefreshInterval(cfg.Metrics.RefreshInterval),
	}
}

// newRouter mounts the API docs and the business API on one router.
func newRouter(ctx context.Context, svc *app.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	swagger.Register(ctx, r)
	api.NewServer(svc, api.WithLogger(logger.Named("api"))).Register(ctx, r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
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

// startServiceMetricsUpdater refreshes the store and pipeline gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.RefreshGauges(ctx)
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
