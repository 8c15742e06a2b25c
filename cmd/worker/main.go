package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jwalitptl/collabcare-api/internal/config"
	"github.com/jwalitptl/collabcare-api/internal/email"
	"github.com/jwalitptl/collabcare-api/internal/repository/postgres"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/reminder"
	"github.com/jwalitptl/collabcare-api/internal/worker"
	"github.com/jwalitptl/collabcare-api/pkg/logger"
	"github.com/jwalitptl/collabcare-api/pkg/messaging/redis"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
	pkgworker "github.com/jwalitptl/collabcare-api/pkg/worker"
)

const healthAddr = ":8081"

func newZapLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Console {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lg, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return lg.With(zap.String("service_name", "collabcare-worker")), nil
}

func setupHealthCheck(registry *prometheus.Registry, ready func(ctx context.Context) error, lg *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Health check server failed", zap.Error(err))
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	lg, err := newZapLogger(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("Worker stopped with error", zap.Error(err))
	}
	lg.Info("Worker stopped")
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	store := postgres.NewStore(db)

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("collabcare_worker", registry)

	// The broker and outbox processor log through the shared zerolog wrapper.
	zl := logger.NewLogger(&logger.Config{Level: logger.ParseLevel(cfg.Log.Level), TimeFormat: time.RFC3339})
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, zl.Zerolog())
	if err != nil {
		return fmt.Errorf("failed to create redis broker: %w", err)
	}
	defer broker.Close()

	var jobs []func(context.Context)

	if cfg.Outbox.Enabled {
		processor, err := pkgworker.NewOutboxProcessor(store, broker, pkgworker.OutboxProcessorConfig{
			Channel:       cfg.Redis.Channel,
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		}, zl, m)
		if err != nil {
			return err
		}
		jobs = append(jobs,
			processor.Start,
			worker.NewOutboxCleanupWorker(store.Outbox(), cfg.Outbox.Retention, time.Hour, lg).Start,
		)
	}

	if cfg.Reminders.DigestEnabled {
		digests := worker.NewReminderDigestWorker(
			reminder.NewService(store, nil, m),
			email.NewSMTPSender(cfg.SMTP),
			cfg.Reminders.DigestInterval,
			lg,
			m,
		)
		jobs = append(jobs, digests.Start)
	}

	jobs = append(jobs, worker.NewAuditCleanupWorker(
		audit.NewService(store.Audit()),
		cfg.Audit.RetentionDays,
		cfg.Audit.CleanupInterval,
		lg,
		m,
	).Start)

	health := setupHealthCheck(registry, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		return broker.Ping(ctx)
	}, lg)

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(start func(context.Context)) {
			defer wg.Done()
			start(ctx)
		}(job)
	}
	lg.Info("Worker started", zap.Int("jobs", len(jobs)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return health.Shutdown(shutdownCtx)
}
