// Package store owns the durable side of a finished artifact: its record
// and the staging/retained file areas.
package store

import (
	"context"
	"errors"
	"time"

	"mediaDownloader/models"
)

var ErrNotFound = errors.New("artifact record not found")

// RecordStore persists finished artifact records across restarts.
type RecordStore interface {
	Put(ctx context.Context, rec *models.Record) error
	Get(ctx context.Context, id string) (*models.Record, error)
	Delete(ctx context.Context, id string) error
	// ListExpired returns every record whose expiry lies before the given
	// instant.
	ListExpired(ctx context.Context, before time.Time) ([]*models.Record, error)
}
