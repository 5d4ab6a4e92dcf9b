package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchside/analytics/internal/analytics"
	"github.com/pitchside/analytics/internal/cache"
	"github.com/pitchside/analytics/internal/config"
	"github.com/pitchside/analytics/internal/database"
	apperrors "github.com/pitchside/analytics/internal/errors"
	"github.com/pitchside/analytics/internal/monitoring"
	"github.com/pitchside/analytics/internal/quality"
	"github.com/pitchside/analytics/internal/ratelimit"
	"github.com/pitchside/analytics/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.LogLevel)

	db, err := database.NewDB(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer apperrors.SafeClose(db, "database")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.VerifySchema(ctx); err != nil {
		cancel()
		logger.Error("schema verification failed", "error", err)
		os.Exit(1)
	}
	cancel()

	exec := database.NewExecutor(db, time.Duration(cfg.QueryTimeoutMS)*time.Millisecond)

	resultCache := cache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	defer resultCache.Stop()

	metrics := monitoring.NewMetrics()

	svc := analytics.NewService(exec, resultCache, cfg, logger, metrics)
	qsvc, err := quality.NewService(exec, resultCache, quality.DefaultPolicy(), logger)
	if err != nil {
		logger.Error("failed to build quality service", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cfg.RateLimitPerMin)
	defer limiter.Stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.New(cfg, svc, qsvc, metrics, limiter).Router()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
