package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"picker-backend/internal/common/config"
	"picker-backend/internal/common/logger"
	"picker-backend/internal/features/user/repository"
	"picker-backend/internal/features/user/repository/memory"
	redisrepo "picker-backend/internal/features/user/repository/redis"
	httpapi "picker-backend/internal/http"
	redisp "picker-backend/internal/platform/redis"
)

func main() {
	cfg := config.MustLoad()
	logger.Init("picker-backend", cfg.Debug)

	var (
		repo repository.UserRepository
		ping httpapi.Pinger
	)
	switch cfg.Storage {
	case config.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := redisp.OpenFromConfig(ctx, cfg)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		repo = redisrepo.NewUserRepository(rdb.Client, cfg.Redis.KeyPrefix)
		ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.Redis.DB).Msg("Using Redis storage")
	default:
		repo = memory.NewUserRepository()
		logger.Warn().Msg("Using in-memory storage; data is lost on restart")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpapi.NewRouter(cfg, repo, ping),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
