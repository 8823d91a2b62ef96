package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patients-api/internal/config"
	"github.com/jwalitptl/patients-api/internal/handler/health"
	promhandler "github.com/jwalitptl/patients-api/internal/handler/prometheus"
	"github.com/jwalitptl/patients-api/internal/middleware"
	"github.com/jwalitptl/patients-api/internal/repository/postgres"
	internalworker "github.com/jwalitptl/patients-api/internal/worker"
	"github.com/jwalitptl/patients-api/pkg/logger"
	"github.com/jwalitptl/patients-api/pkg/messaging/redis"
	"github.com/jwalitptl/patients-api/pkg/metrics"
	"github.com/jwalitptl/patients-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(cfg.ToLoggerConfig("patients-worker"))
	appLogger.SetGlobal()

	if cfg.Database.Driver != "postgres" {
		appLogger.Fatal(fmt.Errorf("driver %q", cfg.Database.Driver), "Outbox worker requires the postgres driver")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New("patients_worker", registry)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), &appLogger.ZL)
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor, err := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		cfg.ToWorkerConfig(),
		appLogger.WithFields(map[string]interface{}{"component": "outbox_processor"}),
		appMetrics,
	)
	if err != nil {
		appLogger.Fatal(err, "Invalid outbox processor config")
	}
	cleanup := internalworker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := healthServer(cfg.Outbox.MetricsPort, postgres.NewBaseRepository(db), registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error(err, "Health check server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	wg.Wait()
}

func healthServer(port int, db postgres.BaseRepository, registry *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery())

	metricsHandler := promhandler.New("patients_worker", registry)
	engine.GET("/metrics", metricsHandler.Handler())
	health.NewHandler(&db).RegisterRoutes(engine.Group(""))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
}
