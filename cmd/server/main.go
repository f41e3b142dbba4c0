package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mediaDownloader/cache"
	"mediaDownloader/config"
	"mediaDownloader/database"
	"mediaDownloader/events"
	"mediaDownloader/executor"
	"mediaDownloader/fetcher"
	"mediaDownloader/gc"
	"mediaDownloader/handlers"
	"mediaDownloader/middleware"
	"mediaDownloader/preview"
	"mediaDownloader/registry"
	"mediaDownloader/service"
	"mediaDownloader/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("Downloader service starting",
		zap.String("port", cfg.Port),
		zap.Int("workers", cfg.WorkerCount),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Postgres connection failed", zap.Error(err))
	}
	defer db.Close()

	pgStore := store.NewPostgresStore(db)
	if err := pgStore.Migrate(ctx); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	var statuses *cache.StatusCache
	if cfg.RedisAddr != "" {
		redisCache, err := database.ConnectCache(cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis unavailable, status cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			statuses = cache.NewStatusCache(redisCache)
		}
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

	areas, err := store.NewAreas(cfg.StagingDir, cfg.RetainedDir)
	if err != nil {
		logger.Fatal("Storage setup failed", zap.Error(err))
	}

	previews, err := preview.NewCache(cfg.PreviewDir, logger)
	if err != nil {
		logger.Fatal("Preview cache setup failed", zap.Error(err))
	}

	ytdlp := fetcher.NewYTDLP(logger)
	reg := registry.New()
	exec := executor.New(reg, pgStore, areas, ytdlp, statuses, publisher, logger, cfg.WorkerCount)
	svc := service.NewTaskService(reg, exec, ytdlp, pgStore, statuses, logger)

	if cfg.GCInterval > 0 {
		var invalidator gc.StatusInvalidator
		if statuses != nil {
			invalidator = statuses
		}
		collector := gc.New(pgStore, areas, invalidator, publisher, logger, cfg.OrphanCutoff)
		go collector.Run(ctx, cfg.GCInterval)
	}

	mux := http.NewServeMux()
	handlers.NewTaskHandler(svc, previews, logger).Register(mux)

	handler := middleware.TraceID(
		middleware.Logging(logger)(
			middleware.Recovery(logger)(mux),
		),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("Server started", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}

	// In-flight downloads finish; queued ones run too rather than being
	// silently dropped at the door.
	exec.Wait()
	logger.Info("Stopped")
}
