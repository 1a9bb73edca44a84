// Command recalc recomputes the cached reviewCount and averageRating of
// every service row. It is meant for backfill after imports and for drift
// correction, and is safe to run while the backend serves traffic.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meimberg-io/awesomeapps/internal/config"
	"github.com/meimberg-io/awesomeapps/internal/repository/postgres"
	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	"github.com/meimberg-io/awesomeapps/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("awesomeapps-recalc", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, *timeout)
	defer timeoutCancel()

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

	recalculator := service.NewRecalculator(
		postgres.NewServiceRepository(pool),
		postgres.NewReviewRepository(pool),
		log,
	)

	result, err := recalculator.Run(ctx)
	if err != nil && result == nil {
		log.Error("recalculation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("recalculation finished",
		slog.Int("total", result.TotalServices),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
	)

	if result.Failed > 0 {
		os.Exit(1)
	}
}
