// Command cleanup runs one garbage-collection sweep and exits. Intended for
// cron, e.g. */10 * * * *, so reclamation survives server downtime.
package main

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediaDownloader/cache"
	"mediaDownloader/config"
	"mediaDownloader/database"
	"mediaDownloader/events"
	"mediaDownloader/gc"
	"mediaDownloader/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Postgres connection failed", zap.Error(err))
	}
	defer db.Close()

	records := store.NewPostgresStore(db)

	var invalidator gc.StatusInvalidator
	if cfg.RedisAddr != "" {
		redisCache, err := database.ConnectCache(cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis unavailable, stale statuses will age out on TTL", zap.Error(err))
		} else {
			defer redisCache.Close()
			invalidator = cache.NewStatusCache(redisCache)
		}
	}

	areas, err := store.NewAreas(cfg.StagingDir, cfg.RetainedDir)
	if err != nil {
		logger.Fatal("Storage setup failed", zap.Error(err))
	}

	publisher := events.NewNopPublisher()
	if cfg.KafkaBrokers != "" {
		kp, err := events.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.EventsTopic)
		if err != nil {
			logger.Warn("Kafka unavailable, event feed disabled", zap.Error(err))
		} else {
			publisher = kp
			defer kp.Close()
		}
	}

	collector := gc.New(records, areas, invalidator, publisher, logger, cfg.OrphanCutoff)

	expired, orphans, err := collector.Sweep(ctx)
	if err != nil {
		logger.Fatal("Sweep failed", zap.Error(err))
	}

	logger.Info("Cleanup complete",
		zap.Int("expired_reclaimed", expired),
		zap.Int("orphans_removed", orphans),
	)
}
