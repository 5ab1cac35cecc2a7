package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salonhub/internal/api"
	"salonhub/internal/availability"
	"salonhub/internal/config"
	"salonhub/internal/database"
	"salonhub/internal/domain"
	"salonhub/internal/events"
	"salonhub/internal/logging"
	"salonhub/internal/metrics"
	"salonhub/internal/pgstore"
	"salonhub/internal/repository"
	"salonhub/internal/service"
	"salonhub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	repo, sqliteDB, err := initRepository(cfg, &logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	bus := events.NewEventBus()
	dispatcher, forwarder := initEventForwarding(cfg, bus, redisClient, &logger)
	if forwarder != nil {
		defer forwarder.Close()
		go dispatcher.Start(ctx)
	}

	services, err := initServices(cfg, repo, initLocker(redisClient, &logger), bus, &logger)
	if err != nil {
		return err
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, services.Availability, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}
	httpServer := api.NewHTTPServer(&cfg.API, services, &logger)

	startMetrics(ctx, cfg, &logger)
	startBackups(ctx, cfg, sqliteDB, &logger)

	err = startServers(ctx, grpcServer, httpServer, cfg, &logger)
	stop()

	if dispatcher != nil {
		<-dispatcher.Done()
	}
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// initRepository opens the configured store. The sqlite handle is returned
// separately because only sqlite supports file backups.
func initRepository(cfg *config.Config, logger *zerolog.Logger) (domain.Repository, *database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := pgstore.Open(cfg.Database.Postgres, logging.Component(logger, "pgstore"))
		if err != nil {
			logger.Error().Err(err).Str("host", cfg.Database.Postgres.Host).Msg("init postgres")
			return nil, nil, err
		}
		return store, nil, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, nil, err
		}
		return db, db, nil
	}
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(redisClient)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initLocker prefers redis so several API replicas share booking locks.
func initLocker(redisClient *redis.Client, logger *zerolog.Logger) domain.Locker {
	memory := repository.NewMemoryLocker()
	if redisClient == nil {
		logger.Info().Msg("using in-process booking locks")
		return memory
	}
	return repository.NewFailoverLocker(repository.NewRedisLocker(redisClient), memory, logging.Component(logger, "locker"))
}

func initEventForwarding(
	cfg *config.Config,
	bus *events.EventBus,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) (*worker.Dispatcher, *events.AMQPForwarder) {
	if !cfg.Events.AMQP.Enabled {
		return nil, nil
	}

	eventsLogger := logging.Component(logger, "events")
	forwarder, err := events.DialAMQP(cfg.Events.AMQP, eventsLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("amqp connection failed, events stay in-process")
		return nil, nil
	}

	dispatcher := worker.NewDispatcher(forwarder, redisClient, worker.RetryPolicy{MaxRetries: cfg.Events.AMQP.MaxRetries}, eventsLogger)
	events.Forward(bus, events.AppointmentEventTypes, dispatcher.Enqueue)
	return dispatcher, forwarder
}

func initServices(
	cfg *config.Config,
	repo domain.Repository,
	locker domain.Locker,
	bus *events.EventBus,
	logger *zerolog.Logger,
) (api.Services, error) {
	calc, err := availability.NewCalculator(cfg.Availability.SlotGranularityMinutes)
	if err != nil {
		return api.Services{}, fmt.Errorf("init calculator: %w", err)
	}

	loc := cfg.Location()
	serviceLogger := logging.Component(logger, "service")
	serviceLogger.Info().
		Int("slot_granularity", calc.Granularity()).
		Str("timezone", loc.String()).
		Bool("hide_past_slots", cfg.Availability.HidePastSlots).
		Msg("availability calculator ready")

	avail := service.NewAvailabilityService(repo, calc, loc, cfg.Availability.HidePastSlots, serviceLogger)
	return api.Services{
		Availability: avail,
		Appointments: service.NewAppointmentService(repo, avail, locker, bus, cfg.Booking, loc, serviceLogger),
		Catalog:      service.NewCatalogService(repo, serviceLogger),
		Health:       repo,
	}, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startBackups(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) {
	if db == nil || !cfg.Backup.Enabled {
		return
	}
	backups := database.NewBackupService(db.Path(), cfg.Backup, logging.Component(logger, "backup"))
	go backups.Start(ctx)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	if grpcServer != nil {
		g.Go(func() error {
			if err := grpcServer.Serve(); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	if cfg.API.HTTP.Enabled {
		g.Go(func() error {
			if err := httpServer.Start(); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if grpcServer != nil {
			grpcServer.Shutdown(shutdownCtx)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	err := g.Wait()
	logger.Info().Msg("API server stopped")
	return err
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
