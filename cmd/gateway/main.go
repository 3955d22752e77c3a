package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"evermedia/gateway/internal/cache"
	"evermedia/gateway/internal/config"
	"evermedia/gateway/internal/handlers"
	"evermedia/gateway/internal/jobs"
	"evermedia/gateway/internal/log"
	"evermedia/gateway/internal/server"
	"evermedia/gateway/internal/tokenstore"
	"evermedia/gateway/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var (
		store       tokenstore.Store
		redisClient *redis.Client
		sweeper     jobs.Sweeper
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		store = tokenstore.NewRedisStore(redisClient, cfg.Session.TTL)
	} else {
		memStore := tokenstore.NewMemoryStore()
		store = memStore
		sweeper = memStore
		logger.Warn().Msg("no redis configured, sessions held in memory")
	}

	factory := upstream.NewFactory(cfg.Upstream, cfg.Environment, logger)
	logger.Info().Str("base_url", factory.BaseURL()).Msg("upstream resolved")

	handlerSet := handlers.NewHandlerSet(logger, cfg, store, redisClient, factory)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sweeper, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("gateway failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop(shutdownCtx)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("gateway exited cleanly")
}
