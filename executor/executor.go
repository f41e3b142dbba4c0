// Package executor runs submitted tasks on a bounded worker pool. Excess
// submissions queue on the semaphore; they are never dropped.
package executor

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"mediaDownloader/cache"
	"mediaDownloader/events"
	"mediaDownloader/fetcher"
	"mediaDownloader/models"
	"mediaDownloader/registry"
	"mediaDownloader/retention"
	"mediaDownloader/store"
)

type Executor struct {
	registry *registry.Registry
	records  store.RecordStore
	areas    *store.Areas
	fetch    fetcher.Fetcher
	statuses *cache.StatusCache
	events   events.Publisher
	logger   *zap.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

func New(reg *registry.Registry, records store.RecordStore, areas *store.Areas, fetch fetcher.Fetcher, statuses *cache.StatusCache, publisher events.Publisher, logger *zap.Logger, maxWorkers int) *Executor {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &Executor{
		registry: reg,
		records:  records,
		areas:    areas,
		fetch:    fetch,
		statuses: statuses,
		events:   publisher,
		logger:   logger,
		sem:      make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a task. It returns immediately; the job blocks on the
// semaphore until a worker slot frees up.
func (e *Executor) Submit(taskID string, req models.DownloadRequest) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		e.sem <- struct{}{}
		defer func() { <-e.sem }()

		e.run(taskID, req)
	}()
}

// Wait blocks until every submitted task has finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) run(taskID string, req models.DownloadRequest) {
	ctx := context.Background()

	spec, err := fetcher.SpecFor(req.FormatKind, req.Quality)
	if err != nil {
		e.fail(ctx, taskID, err)
		return
	}

	if err := e.registry.Transition(taskID, models.StateRunning); err != nil {
		e.logger.Error("Task pickup failed",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		return
	}

	e.logger.Info("Task started",
		zap.String("task_id", taskID),
		zap.String("url", req.URL),
		zap.String("format", spec.Descriptor(req.Quality)),
	)

	hooks := fetcher.Hooks{
		OnProgress: func(downloaded, total int64) {
			if total > 0 {
				e.registry.SetProgress(taskID, int(downloaded*100/total))
			}
		},
		OnTransferComplete: func() {
			e.registry.Transition(taskID, models.StateConverting)
		},
	}

	result, err := e.fetch.Fetch(ctx, req.URL, spec, e.areas.StagingTemplate(taskID), hooks)
	if err != nil {
		e.fail(ctx, taskID, err)
		return
	}

	// The fetcher may finish without a post-processing phase; make sure the
	// converting edge was taken before committing.
	e.registry.Transition(taskID, models.StateConverting)

	finalName := store.FinalFilename(taskID, result.Title, spec.FinalExt)
	finalPath, err := e.areas.Commit(taskID, result.StagedPath, finalName)
	if err != nil {
		e.fail(ctx, taskID, err)
		return
	}

	// The record goes in only after the file landed in retained storage, so
	// every durable record points at an existing file.
	now := time.Now()
	rec := &models.Record{
		ID:              taskID,
		VideoID:         result.VideoID,
		Title:           result.Title,
		FilePath:        finalPath,
		DurationSeconds: int64(result.Duration.Seconds()),
		ExpiresAt:       now.Add(retention.For(result.Duration)),
		FormatInfo:      spec.Descriptor(req.Quality),
		CreatedAt:       now,
	}
	if err := e.records.Put(ctx, rec); err != nil {
		os.Remove(finalPath)
		e.fail(ctx, taskID, err)
		return
	}

	taskResult := models.TaskResult{
		FilePath: finalPath,
		Filename: finalName,
		Title:    result.Title,
		Expiry:   rec.ExpiresAt,
	}
	if err := e.registry.SetResult(taskID, taskResult); err != nil {
		e.logger.Error("Ready transition rejected",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		return
	}

	if e.statuses != nil {
		e.statuses.Set(ctx, taskID, cache.Entry{
			Status:   models.StateReady.String(),
			Title:    result.Title,
			Filename: finalName,
			Expiry:   rec.ExpiresAt,
		})
	}
	if err := e.events.Publish(ctx, events.Event{
		Type:     events.TypeTaskReady,
		TaskID:   taskID,
		Title:    result.Title,
		FilePath: finalPath,
	}); err != nil {
		e.logger.Warn("Event publish failed", zap.String("task_id", taskID), zap.Error(err))
	}

	e.logger.Info("Task ready",
		zap.String("task_id", taskID),
		zap.String("file", finalPath),
		zap.Time("expires_at", rec.ExpiresAt),
	)
}

// fail records the cause, clears any staged leftovers and notifies the
// cache and event feed. One task's failure never touches the pool.
func (e *Executor) fail(ctx context.Context, taskID string, cause error) {
	e.logger.Warn("Task failed",
		zap.String("task_id", taskID),
		zap.Error(cause),
	)

	e.registry.Fail(taskID, cause.Error())

	if err := e.areas.DiscardStaging(taskID); err != nil {
		e.logger.Error("Staging cleanup failed",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}

	if e.statuses != nil {
		e.statuses.Set(ctx, taskID, cache.Entry{
			Status: models.StateError.String(),
			Error:  cause.Error(),
		})
	}
	if err := e.events.Publish(ctx, events.Event{
		Type:   events.TypeTaskFailed,
		TaskID: taskID,
		Cause:  cause.Error(),
	}); err != nil {
		e.logger.Warn("Event publish failed", zap.String("task_id", taskID), zap.Error(err))
	}
}
