package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/ecom/inventory/internal/application/catalog"
	inventoryapp "github.com/ecom/inventory/internal/application/inventory"
	orderapp "github.com/ecom/inventory/internal/application/order"
	"github.com/ecom/inventory/internal/infrastructure/cache"
	"github.com/ecom/inventory/internal/infrastructure/config"
	"github.com/ecom/inventory/internal/infrastructure/lock"
	"github.com/ecom/inventory/internal/infrastructure/logger"
	"github.com/ecom/inventory/internal/infrastructure/messaging"
	"github.com/ecom/inventory/internal/infrastructure/persistence"
	"github.com/ecom/inventory/internal/interfaces/http/handler"
	"github.com/ecom/inventory/internal/interfaces/http/middleware"
	"github.com/ecom/inventory/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with GORM logging through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis backs both the per-SKU lock and the event dedup record
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	log.Info("Redis connected")

	// Infrastructure services
	itemRepo := persistence.NewGormItemRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	lockService := lock.NewRedisLockService(redisClient)
	dedupStore := cache.NewRedisDedupStore(redisClient)
	publisher := messaging.NewKafkaPublisher(cfg.Kafka, cfg.Event, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Error closing kafka publisher", zap.Error(err))
		}
	}()

	// Application services
	retryPolicy := inventoryapp.RetryPolicy{
		Attempts:  cfg.Event.RetryAttempts,
		BaseDelay: cfg.Event.RetryBaseDelay,
		MaxDelay:  cfg.Event.RetryMaxDelay,
	}
	stockService := inventoryapp.NewStockService(
		itemRepo,
		reservationRepo,
		lockService,
		publisher,
		log,
		cfg.Lock.TTL,
		retryPolicy,
	)

	orderHandler := orderapp.NewHandler(stockService, dedupStore, cfg.Event.DedupTTL, log)
	catalogHandler := catalogapp.NewHandler(stockService, log)

	// One group consumer per lifecycle topic; all feed the same handler
	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	var consumers []*messaging.Consumer
	var consumerWG sync.WaitGroup

	runConsumer := func(topic string, handle messaging.HandlerFunc) {
		consumer := messaging.NewConsumer(cfg.Kafka, topic, handle, log)
		consumers = append(consumers, consumer)
		consumerWG.Add(1)
		go func() {
			defer consumerWG.Done()
			if err := consumer.Run(consumerCtx); err != nil {
				log.Error("consumer exited with error",
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		}()
	}

	orderEvents := []string{"created", "updated", "cancelled", "delivered", "shipped", "paid"}
	for _, event := range orderEvents {
		runConsumer(cfg.Kafka.OrderTopic+"."+event, orderHandler.Handle)
	}
	for _, event := range []string{"created", "updated"} {
		runConsumer(cfg.Kafka.CatalogTopic+"."+event, catalogHandler.Handle)
	}
	log.Info("Event consumers started",
		zap.Int("count", len(consumers)),
		zap.String("group_id", cfg.Kafka.ConsumerGroupID),
	)

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	systemHandler := handler.NewSystemHandler(version, map[string]handler.HealthChecker{
		"db": db.Ping,
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		},
	})

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		RegisterSystem(systemHandler).
		Register(handler.NewInventoryHandler(stockService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop taking HTTP traffic, then drain consumers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	stopConsumers()
	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			log.Error("Error closing consumer", zap.Error(err))
		}
	}
	consumerWG.Wait()

	log.Info("Shutdown complete")
}
