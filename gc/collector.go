// Package gc reclaims expired retained artifacts and orphaned staging
// files. Sweeps are idempotent, never touch the task registry, and are safe
// to run concurrently with the executor (they only see finished records and
// staging files old enough that no live task can still own them).
package gc

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"mediaDownloader/events"
	"mediaDownloader/store"
)

// StatusInvalidator evicts a task's cached status entry. Satisfied by
// cache.StatusCache; nil when no cache is configured.
type StatusInvalidator interface {
	Delete(ctx context.Context, taskID string) error
}

type Collector struct {
	records      store.RecordStore
	areas        *store.Areas
	statuses     StatusInvalidator
	events       events.Publisher
	logger       *zap.Logger
	orphanCutoff time.Duration
}

func New(records store.RecordStore, areas *store.Areas, statuses StatusInvalidator, publisher events.Publisher, logger *zap.Logger, orphanCutoff time.Duration) *Collector {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &Collector{
		records:      records,
		areas:        areas,
		statuses:     statuses,
		events:       publisher,
		logger:       logger,
		orphanCutoff: orphanCutoff,
	}
}

// Sweep runs the expired and orphan sweeps once and returns how many
// artifacts and orphans were reclaimed. The sweeps are independent: a
// record-store outage must not leave staging orphans accumulating, so
// both always run and their errors are joined.
func (c *Collector) Sweep(ctx context.Context) (expired, orphans int, err error) {
	expired, expiredErr := c.sweepExpired(ctx)
	orphans, orphanErr := c.sweepOrphans()
	return expired, orphans, errors.Join(expiredErr, orphanErr)
}

// Run sweeps on a fixed interval until the context is cancelled.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := c.Sweep(ctx); err != nil {
				c.logger.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// sweepExpired deletes each expired record's file, then the record. A
// failed file deletion keeps the record so the next sweep retries it;
// a record is never deleted while its file may still exist.
func (c *Collector) sweepExpired(ctx context.Context) (int, error) {
	expired, err := c.records.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, rec := range expired {
		if err := removeFile(rec.FilePath); err != nil {
			c.logger.Warn("File deletion failed, record retained",
				zap.String("task_id", rec.ID),
				zap.String("path", rec.FilePath),
				zap.Error(err),
			)
			continue
		}

		if err := c.records.Delete(ctx, rec.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			c.logger.Error("Record deletion failed",
				zap.String("task_id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		reclaimed++

		// A stale cached status would keep reporting ready while the
		// file is already gone.
		if c.statuses != nil {
			if err := c.statuses.Delete(ctx, rec.ID); err != nil {
				c.logger.Warn("Status cache eviction failed", zap.String("task_id", rec.ID), zap.Error(err))
			}
		}

		if err := c.events.Publish(ctx, events.Event{
			Type:     events.TypeArtifactReclaimed,
			TaskID:   rec.ID,
			Title:    rec.Title,
			FilePath: rec.FilePath,
		}); err != nil {
			c.logger.Warn("Event publish failed", zap.String("task_id", rec.ID), zap.Error(err))
		}

		c.logger.Info("Expired artifact reclaimed",
			zap.String("task_id", rec.ID),
			zap.String("path", rec.FilePath),
			zap.Time("expired_at", rec.ExpiresAt),
		)
	}
	return reclaimed, nil
}

// sweepOrphans removes staging files older than the cutoff. These are
// leftovers of tasks whose process died mid-fetch; the registry entry is
// gone, so file age is the only reclamation signal.
func (c *Collector) sweepOrphans() (int, error) {
	entries, err := os.ReadDir(c.areas.StagingDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-c.orphanCutoff)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(c.areas.StagingDir, entry.Name())
		if err := removeFile(path); err != nil {
			c.logger.Warn("Orphan deletion failed",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		removed++
		c.logger.Info("Orphaned staging file removed", zap.String("path", path))
	}
	return removed, nil
}

// removeFile deletes the file; an already-absent file counts as success.
func removeFile(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
