package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/cache"
	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/database"
	"github.com/memoryhaze/memoryhaze/internal/handlers"
	"github.com/memoryhaze/memoryhaze/internal/jobs"
	"github.com/memoryhaze/memoryhaze/internal/log"
	"github.com/memoryhaze/memoryhaze/internal/mail"
	"github.com/memoryhaze/memoryhaze/internal/queue"
	"github.com/memoryhaze/memoryhaze/internal/repository"
	"github.com/memoryhaze/memoryhaze/internal/server"
	"github.com/memoryhaze/memoryhaze/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	var notifier mail.Notifier
	if cfg.Mail.Host != "" {
		notifier = mail.NewSMTPMailer(cfg.Mail, logger)
	} else {
		logger.Warn().Msg("no smtp host configured, mail goes to the log")
		notifier = mail.NewLogMailer(logger)
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, objectStore, notifier, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	giftRepo := repository.NewGiftRepository(dbPool)
	publisher := queue.NewPublisher(redisClient, cfg.Redis.Stream)
	scheduler := jobs.NewScheduler(giftRepo, publisher, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
