// cmd/notification-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notification-service/internal/cache"
	"notification-service/internal/channels"
	"notification-service/internal/common/aws"
	"notification-service/internal/common/config"
	"notification-service/internal/common/database"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/observability"
	"notification-service/internal/dispatch"
	"notification-service/internal/pubsub"
	"notification-service/internal/realtime"
	"notification-service/internal/search"
	"notification-service/internal/service"
	"notification-service/internal/store"
	transporthttp "notification-service/internal/transport/http"
	"notification-service/internal/transport/http/handler"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification server...",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, audit search unavailable")
	}

	// --- Stores and cache ---
	notificationStore := store.NewNotificationStore(pg.DB, log)
	preferenceStore := store.NewPreferenceStore(pg.DB, log)
	deviceStore := store.NewDeviceStore(pg.DB, log)
	notificationCache := cache.New(redisClient.Client, log)

	// --- Delivery gateways ---
	var sesService channels.SESService
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		sesService = sesClient
		zapLog.Info("SES client initialized")
	}

	var snsService channels.SNSService
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		snsService = snsClient
		zapLog.Info("SNS client initialized")
	}

	registry := channels.NewRegistry(
		channels.NewInAppSender(notificationStore, log),
		channels.NewEmailSender(sesService, cfg.Integrations.AWS.SES.FromEmail, log),
		channels.NewPushSender(snsService, log),
		channels.NewSMSSender(),
	)

	dispatcher := dispatch.New(
		registry,
		preferenceStore,
		deviceStore,
		obs,
		log,
		dispatch.WithSendTimeout(time.Duration(cfg.Channels.SendTimeout)*time.Millisecond),
	)

	// --- Events and realtime ---
	publisher := pubsub.NewPublisher(redisClient.Client, cfg.Realtime.Channel, log)
	hub := realtime.NewHub(log)

	subscriber := realtime.NewSubscriber(redisClient.Client, cfg.Realtime.Channel, hub, log)
	subCtx, subCancel := context.WithCancel(ctx)
	defer subCancel()
	go func() {
		if err := subscriber.Start(subCtx); err != nil && err != context.Canceled {
			zapLog.Error("realtime subscriber stopped", zap.Error(err))
		}
	}()
	zapLog.Info("Realtime subscriber started", zap.String("channel", cfg.Realtime.Channel))

	var indexer service.DeliveryIndexer
	if esClient != nil && cfg.Search.IndexEnabled {
		indexer = search.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.Index, log)
	}

	svc := service.New(
		notificationStore,
		preferenceStore,
		deviceStore,
		dispatcher,
		publisher,
		notificationCache,
		indexer,
		log,
	)

	// --- HTTP server ---
	healthChecks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return pg.Ping(ctx) },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx) },
	}
	if esClient != nil {
		healthChecks["elasticsearch"] = func(context.Context) error { return esClient.Ping() }
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Service:      svc,
		Hub:          hub,
		HealthChecks: healthChecks,
		Logger:       log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Wait for shutdown signal ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	subCancel()
	if err := subscriber.Close(); err != nil {
		zapLog.Error("subscriber close failed", zap.Error(err))
	}
	hub.Shutdown()

	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notification server stopped")
}
