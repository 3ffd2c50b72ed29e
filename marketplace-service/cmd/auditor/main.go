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
	"stilnovo/marketplace-service/internal/app/marketplace/handler"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure/archive"
	"stilnovo/marketplace-service/internal/app/marketplace/infrastructure/database"
	"stilnovo/marketplace-service/internal/app/marketplace/processor"
	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/marketplace-service/internal/app/marketplace/service"
	"stilnovo/pkg/logger"

	"github.com/bsm/redislock"
)

const serviceName = "marketplace-auditor"

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
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === POSTGRESQL ===
	// Схему создает marketplace-service, auditor только читает и чинит производные поля
	db, err := database.ConnectPostgres(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	// === REDIS ===
	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	locker := redislock.New(redisClient)

	// === MONGODB ===
	mongoClient, err := database.ConnectMongo(ctx, cfg.Auditor.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()

	reversalArchive := archive.NewMongoArchive(mongoClient.Database(cfg.Auditor.MongoDatabase))
	if err := reversalArchive.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create archive indexes")
	}
	logger.Info().Str("database", cfg.Auditor.MongoDatabase).Msg("Connected to MongoDB")

	// === СЕРВИСЫ ===
	store := repository.NewStore(db)
	reputationService := service.NewReputationService(store, nil)
	auditService := service.NewAuditService(store, reputationService, reversalArchive)

	// === KAFKA CONSUMER ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		auditService,
	)
	kafkaConsumer.Start(ctx)

	// === CRON ===
	cronScheduler := processor.NewCronScheduler(auditService, locker, cfg.Auditor.LockTTL)
	if err := cronScheduler.Start(ctx, cfg.Auditor.Schedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start audit scheduler")
	}

	// === HEALTH ===
	healthHandler := handler.NewHealthCheckHandler(db, redisClient, mongoClient).WithReversals(reversalArchive)
	healthServer := &http.Server{
		Addr:              ":" + cfg.Server.HealthPort,
		Handler:           healthHandler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.HealthPort).Msg("Starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()

	logger.Info().
		Str("schedule", cfg.Auditor.Schedule).
		Str("topic", cfg.Kafka.Topic).
		Msg("Marketplace auditor is running")

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down marketplace auditor...")

	cronScheduler.Stop()
	kafkaConsumer.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Health server forced to shutdown")
	}

	logger.Info().Msg("Marketplace auditor stopped gracefully")
}
