package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/memoryhaze/memoryhaze/internal/cache"
	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/log"
	"github.com/memoryhaze/memoryhaze/internal/queue"
	"github.com/memoryhaze/memoryhaze/internal/storage"
	"github.com/memoryhaze/memoryhaze/internal/tasks"
)

const claimInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	processor := tasks.NewProcessor(objectStore, logger)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		claimInterval,
		logger,
		processor,
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("stream", cfg.Redis.Stream).
		Str("group", cfg.Redis.Group).
		Str("consumer", cfg.Redis.Consumer).
		Msg("cleanup worker starting")

	if err := consumer.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
	}

	logger.Info().Msg("worker exited cleanly")
}
