package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"uniship/internal/config"
	"uniship/internal/database"
	"uniship/internal/handlers"
	"uniship/internal/kafka"
	"uniship/internal/logger"
	"uniship/internal/redis"
	"uniship/internal/repository"
	"uniship/internal/services"
	"uniship/internal/uniapi"

	"github.com/joho/godotenv"
)

func main() {
	// .env нужен только для локального запуска
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New(&cfg.Logger)
	log.Info("Starting uniship server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище отправлений
	repo, db := openStore(ctx, cfg, log)
	if db != nil {
		defer db.Close()
	}

	if cfg.Shipments.SeedMockData {
		n, err := repository.Seed(ctx, repo, repository.MockShipments())
		if err != nil {
			log.WithError(err).Fatal("Failed to seed shipments")
		}
		log.WithField("created", n).Info("Mock shipments seeded")
	}

	// Подключение к Redis
	redisClient, err := redis.Connect(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Инициализация сервисов
	pricingService := services.NewDeliveryPricingService(&cfg.Pricing, log)
	cacheService := services.NewCacheService(redisClient, &cfg.Cache, log)
	sessionService := services.NewSessionService(redisClient, &cfg.Session, log)
	rateLimiter := services.NewRateLimiterService(redisClient, &cfg.RateLimit, log)
	dashboardService := services.NewDashboardService(repo, log)

	var publisher services.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(&cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		publisher = producer

		consumer, err := kafka.NewConsumer(&cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Kafka consumer")
		}
		defer consumer.Stop()

		kafka.RegisterCacheInvalidation(consumer, cacheService, log)
		if err := consumer.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start Kafka consumer")
		}
	} else {
		log.Info("Kafka disabled, shipment events are not published")
	}

	var cache services.ShipmentCache
	if cfg.Cache.Enabled {
		cache = cacheService
		warmupCache(ctx, repo, cacheService, log)
	}

	shipmentService := services.NewShipmentService(repo, pricingService, cache, publisher, &cfg.Shipments, log)
	upstream := uniapi.NewClient(&cfg.Upstream, log)

	router := &handlers.Router{
		Health:      handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Enabled),
		Shipments:   handlers.NewShipmentHandler(shipmentService, pricingService, log),
		Dashboard:   handlers.NewDashboardHandler(dashboardService, log),
		Accounts:    handlers.NewAccountHandler(upstream, sessionService, log),
		Cache:       handlers.NewCacheHandler(cacheService, log),
		RateLimits:  handlers.NewRateLimitHandler(rateLimiter, log),
		Sessions:    sessionService,
		RateLimiter: rateLimiter,
		Log:         log,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.WithField("address", server.Addr).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

// openStore выбирает хранилище отправлений по SHIPMENT_STORE
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.ShipmentRepository, *database.DB) {
	switch cfg.Shipments.Store {
	case "memory":
		log.Info("Using in-memory shipment store")
		return repository.NewMemoryRepository(), nil
	case "postgres":
		db, err := database.Connect(&cfg.Database, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		if err := db.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
		return repository.NewPostgresRepository(db, log), db
	default:
		log.WithField("store", cfg.Shipments.Store).Fatal("Unknown shipment store")
		return nil, nil
	}
}

// warmupCache прогревает кеш последними отправлениями
func warmupCache(ctx context.Context, repo repository.ShipmentRepository, cache *services.CacheService, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := repo.List(ctx)
	if err != nil {
		log.WithError(err).Warn("Cache warmup skipped")
		return
	}
	if len(list) > 100 {
		list = list[:100]
	}
	cache.WarmupShipments(ctx, list)
}
