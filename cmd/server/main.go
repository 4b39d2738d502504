package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-service/config"
	"stock-service/internal/api"
	"stock-service/internal/broker"
	"stock-service/internal/redisclient"
	"stock-service/internal/service"
	"stock-service/internal/store"
	"stock-service/internal/util"
	"stock-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting stock service")

	tp, err := util.InitTracer("stock-service", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Schema applied")
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	var sequences service.SequenceSource = redisClient
	if cfg.Ingestion.IDGenerator == config.IDGeneratorPostgres {
		sequences = db
	}
	logger.Info("Id generator selected", zap.String("backend", cfg.Ingestion.IDGenerator))

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStockEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicStockEvents))

	eventPublisher := broker.NewEventPublisher(producer)

	reconciler := service.NewStockReconciler(
		db,
		service.NewCategoryResolver(db),
		service.NewSequenceIDGenerator(sequences),
		redisClient,
		eventPublisher,
		cfg.Ingestion.CreatedBy,
	)
	lifecycle := service.NewItemLifecycle(db, redisClient, eventPublisher)
	probe := service.NewExistenceProbe(db, redisClient, time.Duration(cfg.Ingestion.ProbeCacheTTLSeconds)*time.Second)
	reader := service.NewInventoryReader(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var feedWorker *worker.FeedWorker
	if cfg.Kafka.FeedEnabled {
		feedConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStockFeed, cfg.Kafka.ConsumerGroup)
		feedWorker = worker.NewFeedWorker(feedConsumer, reconciler)
		go func() {
			if err := feedWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Feed worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(reconciler, lifecycle, probe, reader, db)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if feedWorker != nil {
		if err := feedWorker.Stop(); err != nil {
			logger.Error("Error stopping feed worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
