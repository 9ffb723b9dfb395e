package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/doubtroom/flashcard-srs/internal/config"
	"github.com/doubtroom/flashcard-srs/internal/handler"
	"github.com/doubtroom/flashcard-srs/internal/repository"
	"github.com/doubtroom/flashcard-srs/internal/service"
	"github.com/doubtroom/flashcard-srs/internal/storage/cache"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func setupLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine outside local development.
		fmt.Fprintf(os.Stderr, "load .env file: %v\n", err)
	}

	cfg, err := config.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := setupLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.S().Info("logger initialized", zap.String("env", cfg.Env))

	repo, err := repository.NewDB(cfg.DB.DSN(), cfg.DB.MaxIdleConns, cfg.DB.MaxOpenConns)
	if err != nil {
		zap.S().Error("connect to PostgreSQL", zap.Error(err), zap.String("host", cfg.DB.Host))
		os.Exit(1)
	}
	defer repo.Close()

	if err = repo.Up(cfg.DB.MigrationsDir); err != nil {
		zap.S().Error("run migrations", zap.Error(err))
		os.Exit(1)
	}

	scheduler := service.NewScheduler(repo, nil, cache.NewCache())

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout

	handler.New(scheduler).Register(e)

	go func() {
		if err := e.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatal("start server", zap.Error(err))
		}
	}()

	zap.S().Info("server started", zap.String("addr", cfg.HTTP.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		zap.S().Error("shutdown server", zap.Error(err))
	}

	zap.S().Info("server stopped")
}
