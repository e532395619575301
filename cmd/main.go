package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/KasumiMercury/primind-remind-escalation/internal/config"
	"github.com/KasumiMercury/primind-remind-escalation/internal/handler"
	"github.com/KasumiMercury/primind-remind-escalation/internal/health"
	"github.com/KasumiMercury/primind-remind-escalation/internal/infra/escalationrecorder"
	"github.com/KasumiMercury/primind-remind-escalation/internal/infra/repository"
	"github.com/KasumiMercury/primind-remind-escalation/internal/infra/sheets"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/logging"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/metrics"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/middleware"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/escalation"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/phase"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/schedule"
)

// Version is set via ldflags at build time
var Version = "dev"

const serviceModule = logging.Module("remind-escalation")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	escalationMetrics, err := metrics.NewEscalationMetrics()
	if err != nil {
		slog.Error("failed to initialize escalation metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB for local, BigQuery for gcloud
	resultRecorder, err := escalationrecorder.NewRecorder(ctx, escalationrecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize escalation result recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := resultRecorder.Flush(context.Background()); err != nil {
			slog.Warn("failed to flush escalation result recorder", slog.String("error", err.Error()))
		}
		if err := resultRecorder.Close(); err != nil {
			slog.Warn("failed to close escalation result recorder", slog.String("error", err.Error()))
		}
	}()

	taskQueue, cleanup, err := initTaskQueue(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize task queue", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("task queue cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	taskRepo, err := sheets.NewTaskRepository(ctx, cfg.Sheets, cfg.Escalation.Location, sheets.ClientOptions(cfg.Sheets)...)
	if err != nil {
		slog.Error("failed to initialize task repository", slog.String("error", err.Error()))
		return 1
	}

	redisOpts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", errors.Join(repository.ErrRedisConnection, err).Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	stateRepo := repository.NewReminderStateRepository(redisClient, cfg.Escalation.NotifiedTTL)

	escalationService := escalation.NewService(
		taskRepo,
		stateRepo,
		taskQueue,
		phase.NewClassifier(cfg.Escalation.Location),
		schedule.NewScheduler(cfg.Escalation.Location),
		escalation.WithRunLock(cfg.Escalation.RunLockTTL),
		escalation.WithRecorder(resultRecorder),
		escalation.WithMetrics(escalationMetrics),
	)
	escalationHandler := handler.NewEscalationHandler(escalationService)
	phaseHandler := handler.NewPhaseHandler(escalationService)

	healthChecker := health.NewChecker(redisClient, Version)
	grpcHealthPath, grpcHealthHandler := healthChecker.GRPCHandler()

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready", grpcHealthPath + "Check"},
		Module:      serviceModule,
		TracerName:  "github.com/KasumiMercury/primind-remind-escalation/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())
	r.Any(grpcHealthPath+"*method", gin.WrapH(grpcHealthHandler))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/escalation/run", escalationHandler.HandleRun)
		v1.POST("/phase/evaluate", phaseHandler.HandleEvaluate)
	}

	// h2c lets gRPC health probes reach the server without TLS.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("timezone", cfg.Escalation.Location.String()),
			slog.Duration("notified_ttl", cfg.Escalation.NotifiedTTL),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
