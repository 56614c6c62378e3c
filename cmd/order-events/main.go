package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/audit"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(&cfg.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	mongoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoDB, err := audit.ConnectMongoDB(mongoCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background())

	history := audit.NewHistoryStore(mongoDB)
	if err := history.CreateIndexes(ctx); err != nil {
		logger.Fatal("failed to create history indexes", zap.Error(err))
	}

	poller := publisher.NewOutboxPoller(repo, publisher.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		PollInterval: cfg.Kafka.PollInterval,
		BatchSize:    cfg.Kafka.BatchSize,
	}, logger.Named("publisher"))
	defer poller.Close()

	consumer := audit.NewConsumer(history, cfg.Kafka.Topic, logger.Named("audit"), cfg.Kafka.Brokers...)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		consumer.Run(ctx)
	}()

	logger.Info("order events worker started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic))

	<-ctx.Done()
	logger.Info("shutting down order events worker")
	wg.Wait()
	logger.Info("order events worker stopped")
}
