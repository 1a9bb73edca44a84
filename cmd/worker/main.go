// Command worker consumes review events from Kafka and keeps the
// denormalized review aggregates of the affected services up to date. It is
// a backstop for the synchronous refresh the backend performs on writes;
// messages that keep failing are dead-lettered and skipped.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/meimberg-io/awesomeapps/internal/config"
	"github.com/meimberg-io/awesomeapps/internal/event"
	"github.com/meimberg-io/awesomeapps/internal/repository/postgres"
	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/internal/worker"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	pkgkafka "github.com/meimberg-io/awesomeapps/pkg/kafka"
	"github.com/meimberg-io/awesomeapps/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cfg.KafkaEnabled {
		slog.Error("KAFKA_ENABLED must be set for the worker")
		os.Exit(1)
	}

	log := logger.New("awesomeapps-worker", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	})
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	updater := service.NewAggregateUpdater(
		postgres.NewServiceRepository(pool),
		postgres.NewReviewRepository(pool),
		log,
	)
	listener := worker.NewAggregateListener(updater, log)

	// Deduplicate redeliveries within a day; crash-lost state only means a
	// redundant aggregate refresh, which is idempotent anyway.
	store := pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	handle := pkgkafka.IdempotentHandler(store, listener.Handle, log)

	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, log)
	defer func() {
		if err := dlq.Close(); err != nil {
			log.Error("dlq producer close error", slog.String("error", err.Error()))
		}
	}()

	topics := []string{
		event.TopicReviewCreated,
		event.TopicReviewUpdated,
		event.TopicReviewDeleted,
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10 << 20,
		}, handle, log).WithDLQ(dlq)

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				log.Error("consumer stopped with error",
					slog.String("topic", topic),
					slog.String("error", err.Error()),
				)
				cancel()
			}
		}(topic)
	}

	wg.Wait()
	log.Info("worker shutdown complete")
}
