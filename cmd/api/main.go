package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patients-api/internal/cache"
	"github.com/jwalitptl/patients-api/internal/config"
	filtersHandler "github.com/jwalitptl/patients-api/internal/handler/filters"
	"github.com/jwalitptl/patients-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/patients-api/internal/handler/patient"
	promhandler "github.com/jwalitptl/patients-api/internal/handler/prometheus"
	"github.com/jwalitptl/patients-api/internal/middleware"
	"github.com/jwalitptl/patients-api/internal/repository"
	"github.com/jwalitptl/patients-api/internal/repository/memory"
	"github.com/jwalitptl/patients-api/internal/repository/postgres"
	"github.com/jwalitptl/patients-api/internal/router"
	"github.com/jwalitptl/patients-api/internal/service/event"
	"github.com/jwalitptl/patients-api/internal/service/filters"
	"github.com/jwalitptl/patients-api/internal/service/patient"
	"github.com/jwalitptl/patients-api/pkg/logger"
	"github.com/jwalitptl/patients-api/pkg/messaging/redis"
	"github.com/jwalitptl/patients-api/pkg/metrics"
)

const metricsNamespace = "patients"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(cfg.ToLoggerConfig("patients-api"))
	appLogger.SetGlobal()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(metricsNamespace, registry)

	// Initialize repositories
	var (
		patientRepo repository.PatientRepository
		outboxRepo  repository.OutboxRepository
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory patient store; data is lost on restart")
		patientRepo = memory.NewPatientRepository()
	default:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		patientRepo = postgres.NewPatientRepository(db, appMetrics)
		outboxRepo = postgres.NewOutboxRepository(db)
	}

	var listCache *cache.ListCache
	if cfg.Cache.Enabled {
		listCache = cache.NewListCache(cfg.Cache.TTL)
	}

	var refresher event.Refresher
	if cfg.Events.Enabled && outboxRepo != nil {
		refresher = event.NewOutboxPublisher(outboxRepo)
	}

	patientService := patient.NewService(patientRepo, patient.Config{
		MaxPageSize: cfg.Server.MaxPageSize,
		Cache:       listCache,
		Refresher:   refresher,
		Metrics:     appMetrics,
	})
	filterStore := filters.NewStore(cfg.Filters.SessionTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Changes made through other instances arrive over Redis and flush the
	// local list cache.
	if cfg.Events.Enabled && listCache != nil {
		broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), &log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; list cache relies on its TTL")
		} else {
			defer broker.Close()
			if err := event.Subscribe(ctx, broker, cfg.Events.Channel, listCache); err != nil {
				log.Warn().Err(err).Str("channel", cfg.Events.Channel).Msg("Failed to subscribe to patient events")
			}
		}
	}

	routerConfig := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		CORSConfig:     middleware.DefaultCORSConfig(),
	}
	routerConfig.CORSConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		routerConfig,
		promhandler.New(metricsNamespace, registry),
		health.NewHandler(patientRepo),
		patientHandler.NewHandler(patientService, filterStore),
		filtersHandler.NewHandler(filterStore),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("Server exited properly")
}
