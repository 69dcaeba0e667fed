package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/gavelmarket/gavel/internal/adapter/http"
	"github.com/gavelmarket/gavel/internal/adapter/http/handler"
	"github.com/gavelmarket/gavel/internal/adapter/http/middleware"
	postgresRepo "github.com/gavelmarket/gavel/internal/adapter/repository/postgres"
	redisRepo "github.com/gavelmarket/gavel/internal/adapter/repository/redis"
	"github.com/gavelmarket/gavel/internal/infrastructure/config"
	"github.com/gavelmarket/gavel/internal/infrastructure/eventpublisher"
	"github.com/gavelmarket/gavel/internal/infrastructure/logger"
	"github.com/gavelmarket/gavel/internal/infrastructure/logging"
	"github.com/gavelmarket/gavel/internal/infrastructure/metrics"
	"github.com/gavelmarket/gavel/internal/infrastructure/postgres"
	"github.com/gavelmarket/gavel/internal/infrastructure/redis"
	"github.com/gavelmarket/gavel/internal/infrastructure/sweeper"
	"github.com/gavelmarket/gavel/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers: zerolog for the application, slog for the
	// background workers.
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger
	zerolog.DefaultContextLogger = &appLogger
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	auctionRepo := postgresRepo.NewAuctionRepository(pool)
	bidRepo := postgresRepo.NewBidRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	clock := usecase.SystemClock{}
	appMetrics := metrics.New()

	// Initialize use cases
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, ledgerRepo, outboxRepo, idGen, clock, appMetrics)
	auctionUC := usecase.NewAuctionUseCase(txManager, auctionRepo, bidRepo, outboxRepo, idGen, clock, cache, appMetrics)
	bidUC := usecase.NewBidUseCase(txManager, auctionRepo, bidRepo, walletRepo, walletUC, outboxRepo, idGen, clock, cache, retrier, appMetrics)
	reconcileUC := usecase.NewReconciliationUseCase(walletRepo, ledgerRepo, clock, appMetrics)

	// Initialize handlers
	walletHandler := handler.NewWalletHandler(walletUC, reconcileUC)
	auctionHandler := handler.NewAuctionHandler(auctionUC)
	bidHandler := handler.NewBidHandler(bidUC)
	ledgerHandler := handler.NewLedgerHandler(reconcileUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:    walletHandler,
		AuctionHandler:   auctionHandler,
		BidHandler:       bidHandler,
		LedgerHandler:    ledgerHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      middleware.NewRateLimiter(100, 200),
		Logger:           appLogger,
	})

	// Background workers stop when workerCtx is cancelled
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Outbox event publisher
	var publisher eventpublisher.Publisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to rabbitmq")
	} else {
		publisher = eventpublisher.NewLogPublisher(nil)
		log.Info().Msg("no AMQP URL configured, events will be logged")
	}

	outboxWorker := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Metrics:    appMetrics,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetentionTime,
	})
	go func() {
		if err := outboxWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Auction sweeper
	sweepWorker := sweeper.New(sweeper.Config{
		Closer:    auctionUC,
		Interval:  cfg.SweepInterval,
		BatchSize: cfg.SweepBatchSize,
	})
	go func() {
		if err := sweepWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("auction sweeper stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
