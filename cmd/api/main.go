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

	"facilitydesk/internal/api"
	"facilitydesk/internal/config"
	"facilitydesk/internal/database"
	"facilitydesk/internal/domain"
	"facilitydesk/internal/events"
	"facilitydesk/internal/logging"
	"facilitydesk/internal/metrics"
	"facilitydesk/internal/repository"
	"facilitydesk/internal/service"
	"facilitydesk/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const storeCheckInterval = 30 * time.Second

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

	if err := loadVenues(cfg, &logger); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, db, err := initStore(cfg, &logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	stateRepo := initStateRepository(cfg, redisClient, &logger)

	eventBus := events.NewEventBus()
	metrics.SubscribeEvents(eventBus)

	bookingService := service.NewBookingService(store, eventBus, service.BookingOptions{
		Venues:         cfg.Booking.Venues,
		VehicleOrigin:  cfg.Booking.VehicleOrigin,
		Location:       loc,
		MaxBookingDays: cfg.Booking.MaxBookingDays,
	}, &logger)
	stateService := service.NewStateService(stateRepo, store, service.NavigatorConfig{
		Location:       loc,
		MonthsAhead:    cfg.Booking.MonthsAhead,
		MaxBookingDays: cfg.Booking.MaxBookingDays,
		DefaultHour:    cfg.Booking.DefaultHour,
		DefaultVenue:   cfg.Booking.Venues[0],
		VehicleOrigin:  cfg.Booking.VehicleOrigin,
	}, &logger)

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(&cfg.API, bookingService, stateService, loc, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)
	startReminders(ctx, cfg, store, eventBus, loc, &logger)
	if db != nil && grpcServer != nil {
		go watchStore(ctx, db, grpcServer, &logger)
	}

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
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
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

// loadVenues replaces the configured venue catalogue with VENUES_PATH, when set.
func loadVenues(cfg *config.Config, logger *zerolog.Logger) error {
	venuesPath := os.Getenv("VENUES_PATH")
	if venuesPath == "" {
		return nil
	}

	venuesData, err := os.ReadFile(venuesPath)
	if err != nil {
		logger.Error().Err(err).Str("venues_path", venuesPath).Msg("read venues")
		return err
	}

	var venuesConfig struct {
		Venues []string `yaml:"venues"`
	}
	if err := yaml.Unmarshal(venuesData, &venuesConfig); err != nil {
		logger.Error().Err(err).Str("venues_path", venuesPath).Msg("parse venues")
		return err
	}
	if len(venuesConfig.Venues) == 0 {
		return fmt.Errorf("venues file %s lists no venues", venuesPath)
	}
	if err := config.ValidateVenues(venuesConfig.Venues); err != nil {
		return err
	}

	cfg.Booking.Venues = venuesConfig.Venues
	logger.Info().Int("venues", len(venuesConfig.Venues)).Str("venues_path", venuesPath).Msg("venue catalogue loaded")
	return nil
}

// initStore opens the request store. db is non-nil only for the sqlite driver.
func initStore(cfg *config.Config, logger *zerolog.Logger) (domain.BookingStore, *database.DB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn().Msg("using in-memory booking store; bookings are lost on restart")
		return repository.NewMemoryBookingStore(), nil, nil
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, nil, err
	}
	return db, db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory sessions")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initStateRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository(cfg.Redis.StateTTL)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverStateRepository(
		repository.NewRedisStateRepository(redisClient, cfg.Redis.StateTTL),
		memory,
		logger,
	)
}

// watchStore reports the sqlite store's reachability on the gRPC health service.
func watchStore(ctx context.Context, db *database.DB, grpcServer *api.GRPCServer, logger *zerolog.Logger) {
	ticker := time.NewTicker(storeCheckInterval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := db.PingContext(pingCtx)
			cancel()

			if ok := err == nil; ok != serving {
				serving = ok
				grpcServer.SetServing(serving)
				if err != nil {
					logger.Error().Err(err).Msg("booking store unreachable")
				} else {
					logger.Info().Msg("booking store reachable again")
				}
			}
		}
	}
}

func startReminders(ctx context.Context, cfg *config.Config, store domain.BookingStore,
	eventBus *events.EventBus, loc *time.Location, logger *zerolog.Logger) {
	if !cfg.Booking.Reminders.Enabled {
		return
	}

	reminders := worker.NewReminderWorker(store, eventBus, worker.ReminderConfig{
		Location: loc,
		Hour:     cfg.Booking.Reminders.Hour,
		Retry:    worker.RetryPolicy{MaxRetries: cfg.Booking.Reminders.MaxRetries},
	}, logger)
	go reminders.Start(ctx)
	logger.Info().Int("hour", cfg.Booking.Reminders.Hour).Msg("booking reminders scheduled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
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
