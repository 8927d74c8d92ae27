package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"mediascribe/internal/cache"
	"mediascribe/internal/config"
	"mediascribe/internal/database"
	"mediascribe/internal/feed"
	"mediascribe/internal/queue"
	"mediascribe/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database required for feed ingestion", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
	})

	ingestor := feed.NewIngestor(
		feed.NewParser(),
		feed.NewPostgresStore(db),
		cache.New(rdb),
	)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeFeedIngest, asynq.HandlerFunc(workers.NewFeedWorker(ingestor).ProcessTask))

	// Periodic feed pull, scheduled through asynq so it lands on the same
	// worker pool as ad-hoc ingests.
	if cfg.Feed.Source != "" {
		scheduler := asynq.NewScheduler(redisOpt, nil)
		payload, err := json.Marshal(queue.FeedIngestPayload{Source: cfg.Feed.Source})
		if err != nil {
			slog.Error("marshal feed payload", "error", err)
			os.Exit(1)
		}
		cronspec := "@every " + cfg.Feed.Interval.String()
		if _, err := scheduler.Register(cronspec, asynq.NewTask(queue.TypeFeedIngest, payload)); err != nil {
			slog.Error("register feed schedule", "error", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("starting feed scheduler", "source", cfg.Feed.Source, "interval", cfg.Feed.Interval.String())
			if err := scheduler.Run(); err != nil {
				slog.Error("scheduler error", "error", err)
				os.Exit(1)
			}
		}()
	} else {
		slog.Warn("FEED_SOURCE not set, periodic ingestion disabled")
	}

	slog.Info("starting worker", "concurrency", 5)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
