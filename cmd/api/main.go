package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hallbook/internal/api"
	"hallbook/internal/config"
	"hallbook/internal/database"
	"hallbook/internal/domain"
	"hallbook/internal/events"
	"hallbook/internal/google"
	"hallbook/internal/logging"
	"hallbook/internal/mailer"
	"hallbook/internal/metrics"
	"hallbook/internal/notify"
	"hallbook/internal/repository"
	"hallbook/internal/service"
	"hallbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	channels := worker.Channels{
		Sheets:   initGoogleSheets(cfg, &logger),
		Mailer:   initMailer(cfg, &logger),
		Notifier: initTelegram(cfg, &logger),
	}

	retryPolicy := worker.PolicyFromSeconds(cfg.Worker.MaxRetries, cfg.Worker.InitialDelaySeconds, cfg.Worker.MaxDelaySeconds)
	notifyWorker := worker.NewNotifyWorker(
		db, channels, redisClient, retryPolicy,
		time.Duration(cfg.Worker.PollIntervalSeconds)*time.Second,
		cfg.Worker.BatchSize,
		&logger,
	)
	go notifyWorker.Start(ctx)

	eventBus := events.NewEventBus()
	subscribeMetricEvents(eventBus, &logger)

	bookingService := service.NewBookingService(db, db, eventBus, notifyWorker, cfg.Booking.RecheckOnApprove, &logger)

	httpServer := api.NewHTTPServer(cfg.HTTP, bookingService, initLimitStore(cfg, redisClient, &logger), &logger)

	startMetrics(ctx, cfg, &logger)
	go cleanupSessions(ctx, db, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Msg("booking API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("booking API stopped")
	return nil
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

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initLimitStore(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimitStore {
	if !cfg.HTTP.RateLimit.Enabled {
		return nil
	}

	memory := repository.NewMemoryLimitStore()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverLimitStore(repository.NewRedisLimitStore(redisClient), memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) domain.SheetsWriter {
	if cfg.Google.CredentialsFile == "" || cfg.Google.SpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initMailer(cfg *config.Config, logger *zerolog.Logger) domain.Mailer {
	if cfg.SMTP.Host == "" {
		logger.Info().Msg("smtp not configured, using dev mailer")
		return mailer.NewDevMailer(logger)
	}
	return mailer.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From,
		cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.UseTLS,
		cfg.SMTP.AdminEmail,
	)
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		return nil
	}

	logger.Info().Msg("telegram notifier connected")
	return notifier
}

func subscribeMetricEvents(bus *events.EventBus, logger *zerolog.Logger) {
	decode := func(ev *events.Event) (events.BookingEventPayload, bool) {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return payload, false
		}
		return payload, true
	}

	bus.Subscribe(events.EventBookingCreated, func(ev *events.Event) error {
		metrics.IncBookingsCreated()
		return nil
	})

	statusHandler := func(ev *events.Event) error {
		if payload, ok := decode(ev); ok {
			metrics.IncStatusChange(payload.Status)
		}
		return nil
	}
	bus.Subscribe(events.EventBookingApproved, statusHandler)
	bus.Subscribe(events.EventBookingRejected, statusHandler)
	bus.Subscribe(events.EventBookingReopened, statusHandler)
}

// cleanupSessions drops expired sessions once an hour so the table does not
// grow without bound. Session issuance lives in the auth frontend.
func cleanupSessions(ctx context.Context, db *database.DB, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.DeleteExpiredSessions(ctx, time.Now())
			if err != nil {
				logger.Error().Err(err).Msg("session cleanup failed")
				continue
			}
			if n > 0 {
				logger.Info().Int64("deleted", n).Msg("expired sessions removed")
			}
		}
	}
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

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
