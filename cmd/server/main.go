package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/adapter/handler"
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

	ctx := context.Background()

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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to ping redis", zap.Error(err))
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	orderQueue, err := queue.NewRabbitQueue(cfg.Queue.URL, cfg.Queue.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect queue", zap.Error(err))
	}
	defer orderQueue.Close()

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.Redis.ListingTTL)

	intake := service.NewIntakeService(orderQueue, mysqlAdapter, logger)
	catalog := service.NewCatalogService(mysqlAdapter, redisAdapter, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	handler.NewHTTPHandler(intake, catalog, logger).Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
