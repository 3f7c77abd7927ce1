package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-inventory/internal/ai"
	"go-pos-inventory/internal/auth"
	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/config"
	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/handlers"
	"go-pos-inventory/internal/idempotency"
	"go-pos-inventory/internal/logging"
	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogDir)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// prices go over the wire as numbers, the till does its own rounding
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Connect(database.ConnectOptions{
		Driver:    cfg.DBDriver,
		DSN:       cfg.DBDSN,
		SQLLogger: logging.GormLogger(logger, cfg.IsProduction()),
		Logger:    logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create upload directory")
	}

	store := database.NewStore(db, database.WithLowStockThreshold(cfg.LowStockThreshold))
	serverMetrics := metrics.NewServerMetrics(prometheus.DefaultRegisterer)

	terminalID := utils.TerminalID(cfg.TerminalID)
	coord := checkout.NewCoordinator(store,
		checkout.WithLogger(logger),
		checkout.WithObserver(serverMetrics),
		checkout.WithTerminalID(terminalID),
	)

	guard, closeGuard := newGuard(cfg, logger)
	defer closeGuard()

	agent := ai.NewAgent(store, cfg.GeminiAPIKey, ai.WithLogger(logger))
	if !agent.Enabled() {
		logger.Warn("GEMINI_API_KEY is not set, the assistant endpoint will answer 503")
	}

	h := handlers.New(store, coord, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), guard, agent, logger, handlers.Options{
		Production:        cfg.IsProduction(),
		BaseURL:           cfg.BaseURL,
		UploadDir:         cfg.UploadDir,
		AllowRegistration: cfg.AllowRegistration,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(handlers.RouterConfig{CORSOrigins: cfg.CORSOrigins, Metrics: serverMetrics}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "terminal": terminalID}).Info("Server starting on " + cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server exited")
}

// newGuard prefers Redis so keys survive restarts and are shared between
// instances. Without it each process keeps its own keys in memory.
func newGuard(cfg *config.Config, logger *logrus.Logger) (idempotency.Guard, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory idempotency keys")
		return idempotency.NewMemoryGuard(cfg.IdempotencyTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("Redis unreachable, using in-memory idempotency keys")
		client.Close()
		return idempotency.NewMemoryGuard(cfg.IdempotencyTTL), func() {}
	}

	logger.WithField("addr", cfg.RedisAddr).Info("Redis connected")
	return idempotency.NewRedisGuard(client, cfg.IdempotencyTTL), func() { client.Close() }
}
