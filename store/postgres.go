package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"mediaDownloader/database"
	"mediaDownloader/models"
)

type PostgresStore struct {
	db *database.DB
}

var _ RecordStore = (*PostgresStore)(nil)

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the downloads table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS downloads (
			id TEXT PRIMARY KEY,
			video_id TEXT,
			title TEXT,
			file_path TEXT,
			duration_seconds BIGINT,
			expires_at TIMESTAMPTZ,
			format_info TEXT,
			created_at TIMESTAMPTZ
		)
	`
	_, err := s.db.Pool.Exec(ctx, query)
	return err
}

func (s *PostgresStore) Put(ctx context.Context, rec *models.Record) error {
	query := `
		INSERT INTO downloads (id, video_id, title, file_path, duration_seconds, expires_at, format_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			video_id = EXCLUDED.video_id,
			title = EXCLUDED.title,
			file_path = EXCLUDED.file_path,
			duration_seconds = EXCLUDED.duration_seconds,
			expires_at = EXCLUDED.expires_at,
			format_info = EXCLUDED.format_info,
			created_at = EXCLUDED.created_at
	`

	_, err := s.db.Pool.Exec(ctx, query,
		rec.ID,
		rec.VideoID,
		rec.Title,
		rec.FilePath,
		rec.DurationSeconds,
		rec.ExpiresAt,
		rec.FormatInfo,
		rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Record, error) {
	query := `
		SELECT id, video_id, title, file_path, duration_seconds, expires_at, format_info, created_at
		FROM downloads
		WHERE id = $1
	`

	row := s.db.Pool.QueryRow(ctx, query, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM downloads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListExpired(ctx context.Context, before time.Time) ([]*models.Record, error) {
	query := `
		SELECT id, video_id, title, file_path, duration_seconds, expires_at, format_info, created_at
		FROM downloads
		WHERE expires_at < $1
	`

	rows, err := s.db.Pool.Query(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var rec models.Record
	err := row.Scan(
		&rec.ID,
		&rec.VideoID,
		&rec.Title,
		&rec.FilePath,
		&rec.DurationSeconds,
		&rec.ExpiresAt,
		&rec.FormatInfo,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
