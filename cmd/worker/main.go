package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/config"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/database"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/document"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/history"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/logging"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/queue"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/queue/workers"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/suggest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	_, cleanup := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		Stdout:    cfg.Logging.Stdout,
	})
	defer cleanup()

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	docSvc := document.NewService(db, cfg.Search.ChunkSize)
	histSvc := history.NewService(db)
	suggestCache := suggest.NewRedisCache(rdb, cfg.Search.SuggestionTTL)
	suggestEngine := suggest.NewEngine(docSvc, histSvc, suggestCache)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	registry := queue.NewHandlersRegistry()

	indexer := workers.NewIndexerWorker(docSvc, suggestEngine)
	retention := workers.NewRetentionWorker(histSvc)

	registry.Register(queue.TypeDocumentReindex, asynq.HandlerFunc(indexer.ProcessTask))
	registry.Register(queue.TypeHistoryPurge, asynq.HandlerFunc(retention.ProcessTask))

	// Nightly history purge.
	scheduler := asynq.NewScheduler(redisOpt, nil)
	purgePayload, _ := json.Marshal(queue.HistoryPurgePayload{
		RetentionDays: int(cfg.Search.HistoryRetention.Hours() / 24),
	})
	if _, err := scheduler.Register("0 3 * * *", asynq.NewTask(queue.TypeHistoryPurge, purgePayload)); err != nil {
		slog.Error("failed to register purge schedule", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
