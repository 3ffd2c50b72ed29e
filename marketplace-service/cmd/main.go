package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/config"
	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/handler"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure/cache"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure/database"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure/messaging"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/marketplace-service/internal/app/marketplace/service"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"gorm.io/gorm"
)

const serviceName = "marketplace-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	db, err := database.ConnectPostgres(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	store := repository.NewStore(db)
	if err := store.AutoMigrate(entity.AllModels()...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database schema")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Без Redis сервис работает, рекомендации считаются напрямую из БД
	var scoreCache infrastructure.ScoreCache
	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, recommendation cache disabled")
	} else {
		defer redisClient.Close()
		scoreCache = cache.NewRedisScoreCache(redisClient, cfg.Recommendation.ScoreTTL)
		logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")
	}

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")

	interactionService := service.NewInteractionService(store, scoreCache)
	recommendationService := service.NewRecommendationService(store, scoreCache, cfg.Recommendation)
	purchaseService := service.NewPurchaseService(store, interactionService, kafkaProducer)
	reputationService := service.NewReputationService(store, kafkaProducer)

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	marketplaceHandler := handler.NewMarketplaceHandler(
		purchaseService,
		reputationService,
		interactionService,
		recommendationService,
	)
	router := handler.SetupRoutes(marketplaceHandler, authMiddleware, cfg.Server.AllowedOrigins)

	go recordDBStats(ctx, db)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("Starting Marketplace Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Marketplace Service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Marketplace Service stopped gracefully")
}

// recordDBStats раз в 15 секунд выгружает состояние пула в Prometheus
func recordDBStats(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn().Err(err).Msg("DB stats unavailable")
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RecordDBStats(serviceName, sqlDB.Stats())
		}
	}
}
