package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mediaDownloader/dto"
	"mediaDownloader/fetcher"
	"mediaDownloader/models"
	"mediaDownloader/registry"
	"mediaDownloader/store"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*models.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.Record)}
}

func (m *memStore) Put(_ context.Context, rec *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memStore) ListExpired(_ context.Context, before time.Time) ([]*models.Record, error) {
	return nil, nil
}

type stubResolver struct {
	meta *fetcher.Metadata
	err  error
}

func (r *stubResolver) Resolve(_ context.Context, _ string) (*fetcher.Metadata, error) {
	return r.meta, r.err
}

func newService(t *testing.T, reg *registry.Registry, records store.RecordStore, resolver fetcher.Resolver) *TaskService {
	t.Helper()
	if resolver == nil {
		resolver = &stubResolver{}
	}
	return NewTaskService(reg, nil, resolver, records, nil, zaptest.NewLogger(t))
}

func TestResolve(t *testing.T) {
	resolver := &stubResolver{meta: &fetcher.Metadata{
		VideoID:  "dQw4w9WgXcQ",
		Title:    "A Video",
		Duration: 3725 * time.Second,
		Variants: []fetcher.FormatVariant{
			{Label: "1080p", Height: 1080},
			{Label: "720p", Height: 720},
		},
	}}
	svc := newService(t, registry.New(), newMemStore(), resolver)

	info, err := svc.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Duration != 3725 {
		t.Errorf("duration = %d", info.Duration)
	}
	if info.DurationFormatted != "1:02:05" {
		t.Errorf("duration_formatted = %q", info.DurationFormatted)
	}
	if len(info.Qualities) != 2 || info.Qualities[0].Label != "1080p" {
		t.Errorf("qualities = %+v", info.Qualities)
	}
}

func TestResolve_InvalidURL(t *testing.T) {
	svc := newService(t, registry.New(), newMemStore(), nil)
	if _, err := svc.Resolve(context.Background(), "https://example.com/x"); !errors.Is(err, dto.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestSubmit_InvalidRequests(t *testing.T) {
	svc := newService(t, registry.New(), newMemStore(), nil)

	if _, err := svc.Submit(context.Background(), &dto.DownloadRequest{URL: "nope"}); !errors.Is(err, dto.ErrInvalidURL) {
		t.Errorf("bad url accepted: %v", err)
	}

	req := &dto.DownloadRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		FormatType: "audio_flac",
	}
	if _, err := svc.Submit(context.Background(), req); err == nil {
		t.Errorf("bad format kind accepted")
	}
}

func TestStatus_RegistryHit(t *testing.T) {
	reg := registry.New()
	svc := newService(t, reg, newMemStore(), nil)

	id := reg.Create(models.DownloadRequest{VideoID: "dQw4w9WgXcQ"})
	reg.Transition(id, models.StateRunning)
	reg.SetProgress(id, 55)

	resp, err := svc.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if resp.Status != "downloading" || resp.Progress != 55 {
		t.Errorf("status = %+v", resp)
	}
}

func TestStatus_RecordFallback(t *testing.T) {
	records := newMemStore()
	svc := newService(t, registry.New(), records, nil)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	records.Put(context.Background(), &models.Record{
		ID:        "aaaa1111",
		Title:     "Old Clip",
		FilePath:  "/converted/aaaa1111_Old Clip.mp4",
		ExpiresAt: expiry,
	})

	resp, err := svc.Status(context.Background(), "aaaa1111")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if resp.Status != "ready" || resp.Progress != 100 {
		t.Errorf("fallback status = %+v", resp)
	}
	if resp.Title != "Old Clip" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.Filename != "aaaa1111_Old Clip.mp4" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.Expiry != expiry.Format(time.RFC3339) {
		t.Errorf("expiry = %q", resp.Expiry)
	}
}

func TestStatus_Unknown(t *testing.T) {
	svc := newService(t, registry.New(), newMemStore(), nil)
	if _, err := svc.Status(context.Background(), "missing1"); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestFile_FromRecord(t *testing.T) {
	records := newMemStore()
	svc := newService(t, registry.New(), records, nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "aaaa1111_Old Clip.mp4")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	records.Put(context.Background(), &models.Record{
		ID:       "aaaa1111",
		Title:    "Old Clip",
		FilePath: path,
	})

	gotPath, filename, err := svc.File(context.Background(), "aaaa1111")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if gotPath != path {
		t.Errorf("path = %q", gotPath)
	}
	if filename != "aaaa1111_Old Clip.mp4" {
		t.Errorf("filename = %q", filename)
	}
}

func TestFile_GoneFromDisk(t *testing.T) {
	records := newMemStore()
	svc := newService(t, registry.New(), records, nil)

	records.Put(context.Background(), &models.Record{
		ID:       "aaaa1111",
		Title:    "Old Clip",
		FilePath: filepath.Join(t.TempDir(), "nope.mp4"),
	})

	if _, _, err := svc.File(context.Background(), "aaaa1111"); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for missing file, got %v", err)
	}
}

func TestFile_TaskNotReady(t *testing.T) {
	reg := registry.New()
	svc := newService(t, reg, newMemStore(), nil)

	id := reg.Create(models.DownloadRequest{VideoID: "dQw4w9WgXcQ"})
	reg.Transition(id, models.StateRunning)

	if _, _, err := svc.File(context.Background(), id); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for running task, got %v", err)
	}
}
