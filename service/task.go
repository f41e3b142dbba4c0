// Package service glues submissions, status reads and file resolution over
// the registry, cache and record store.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"mediaDownloader/cache"
	"mediaDownloader/dto"
	"mediaDownloader/executor"
	"mediaDownloader/fetcher"
	"mediaDownloader/models"
	"mediaDownloader/registry"
	"mediaDownloader/store"
)

type TaskService struct {
	registry *registry.Registry
	executor *executor.Executor
	resolver fetcher.Resolver
	records  store.RecordStore
	statuses *cache.StatusCache
	logger   *zap.Logger
}

func NewTaskService(reg *registry.Registry, exec *executor.Executor, resolver fetcher.Resolver, records store.RecordStore, statuses *cache.StatusCache, logger *zap.Logger) *TaskService {
	return &TaskService{
		registry: reg,
		executor: exec,
		resolver: resolver,
		records:  records,
		statuses: statuses,
		logger:   logger,
	}
}

// Resolve cleans the URL and asks the resolver for metadata and qualities.
func (s *TaskService) Resolve(ctx context.Context, rawURL string) (*dto.InfoResponse, error) {
	videoID := fetcher.ExtractVideoID(rawURL)
	if videoID == "" {
		return nil, dto.ErrInvalidURL
	}

	meta, err := s.resolver.Resolve(ctx, fetcher.CleanURL(rawURL))
	if err != nil {
		return nil, err
	}

	resp := &dto.InfoResponse{
		VideoID:           meta.VideoID,
		Title:             meta.Title,
		Channel:           meta.Channel,
		Thumbnail:         meta.Thumbnail,
		Duration:          int64(meta.Duration.Seconds()),
		DurationFormatted: formatDuration(meta.Duration),
	}
	for _, v := range meta.Variants {
		resp.Qualities = append(resp.Qualities, dto.QualityOption{
			Label:    v.Label,
			Height:   v.Height,
			Filesize: v.Filesize,
		})
	}
	return resp, nil
}

// Submit validates the request, registers a queued task and hands it to the
// executor. Returns the new task id.
func (s *TaskService) Submit(ctx context.Context, req *dto.DownloadRequest) (string, error) {
	videoID := fetcher.ExtractVideoID(req.URL)
	if videoID == "" {
		return "", dto.ErrInvalidURL
	}
	if _, err := fetcher.SpecFor(req.FormatType, req.Quality); err != nil {
		return "", fmt.Errorf("%w: %v", dto.ErrInvalidURL, err)
	}

	request := models.DownloadRequest{
		URL:        fetcher.CleanURL(req.URL),
		VideoID:    videoID,
		Quality:    req.Quality,
		FormatKind: req.FormatType,
	}

	taskID := s.registry.Create(request)
	s.executor.Submit(taskID, request)

	s.logger.Info("Task submitted",
		zap.String("task_id", taskID),
		zap.String("video_id", videoID),
		zap.String("quality", req.Quality),
		zap.String("format", req.FormatType),
	)
	return taskID, nil
}

// Status resolves a task id: registry first, then the status cache, then
// the durable record (which can only mean ready). Unknown ids map onto
// dto.ErrTaskNotFound.
func (s *TaskService) Status(ctx context.Context, taskID string) (*dto.StatusResponse, error) {
	task, err := s.registry.Get(taskID)
	if err == nil {
		return statusFromTask(&task), nil
	}

	if s.statuses != nil {
		if entry, err := s.statuses.Get(ctx, taskID); err == nil {
			return statusFromCache(entry), nil
		}
	}

	rec, err := s.records.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dto.ErrTaskNotFound
		}
		return nil, err
	}

	resp := statusFromRecord(rec)
	if s.statuses != nil {
		s.statuses.Set(ctx, taskID, cache.Entry{
			Status:   resp.Status,
			Title:    resp.Title,
			Filename: resp.Filename,
			Expiry:   rec.ExpiresAt,
		})
	}
	return resp, nil
}

// File resolves the on-disk path and download filename for a task,
// registry first, record fallback. A record whose file is gone from disk
// reports not found regardless of the record's presence.
func (s *TaskService) File(ctx context.Context, taskID string) (path, filename string, err error) {
	if task, err := s.registry.Get(taskID); err == nil {
		if task.State != models.StateReady || task.Result == nil {
			return "", "", dto.ErrTaskNotFound
		}
		path, filename = task.Result.FilePath, task.Result.Filename
	} else {
		rec, err := s.records.Get(ctx, taskID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", "", dto.ErrTaskNotFound
			}
			return "", "", err
		}
		path, filename = rec.FilePath, store.FinalFilename(rec.ID, rec.Title, extFromPath(rec.FilePath))
	}

	if _, err := os.Stat(path); err != nil {
		return "", "", dto.ErrTaskNotFound
	}
	return path, filename, nil
}

func statusFromTask(task *models.Task) *dto.StatusResponse {
	resp := &dto.StatusResponse{
		Status:   task.State.String(),
		Progress: task.Progress,
	}
	switch task.State {
	case models.StateReady:
		resp.Title = task.Result.Title
		resp.Filename = task.Result.Filename
		resp.Expiry = task.Result.Expiry.Format(time.RFC3339)
	case models.StateError:
		resp.Error = task.Failure
	}
	return resp
}

func statusFromCache(entry *cache.Entry) *dto.StatusResponse {
	resp := &dto.StatusResponse{
		Status:   entry.Status,
		Title:    entry.Title,
		Filename: entry.Filename,
		Error:    entry.Error,
	}
	if entry.Status == models.StateReady.String() {
		resp.Progress = 100
		resp.Expiry = entry.Expiry.Format(time.RFC3339)
	}
	return resp
}

func statusFromRecord(rec *models.Record) *dto.StatusResponse {
	return &dto.StatusResponse{
		Status:   models.StateReady.String(),
		Progress: 100,
		Title:    rec.Title,
		Filename: store.FinalFilename(rec.ID, rec.Title, extFromPath(rec.FilePath)),
		Expiry:   rec.ExpiresAt.Format(time.RFC3339),
	}
}

func extFromPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return "mp4"
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "Unknown"
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
