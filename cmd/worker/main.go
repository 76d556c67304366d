package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/adapter/queue"
	"github.com/gana36/Prime-Day-Sim/internal/adapter/storage"
	"github.com/gana36/Prime-Day-Sim/internal/config"
	"github.com/gana36/Prime-Day-Sim/internal/core/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQL.DSN())
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnLifetime)
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to mysql")

	orderQueue, err := queue.NewRabbitQueue(cfg.Queue.URL, cfg.Queue.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect queue", zap.Error(err))
	}
	defer orderQueue.Close()

	mysqlAdapter := storage.NewMySQLAdapter(db)
	reservations := service.NewReservationService(mysqlAdapter, cfg.Worker.RetryBudget)
	worker := service.NewFulfillmentWorker(orderQueue, mysqlAdapter, reservations, service.WorkerConfig{
		BatchSize:   cfg.Worker.BatchSize,
		WaitTime:    cfg.Worker.WaitTime,
		MaxReceives: cfg.Worker.MaxReceives,
	}, logger)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker exited", zap.Error(err))
	}
	logger.Info("worker shut down")
}
