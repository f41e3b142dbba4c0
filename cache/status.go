package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mediaDownloader/database"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

// Entry is the compact status payload cached between the registry miss and
// the record-store fallback on status reads.
type Entry struct {
	Status   string    `json:"status"`
	Title    string    `json:"title,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Expiry   time.Time `json:"expiry,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type StatusCache struct {
	cache *database.Cache
}

func NewStatusCache(cache *database.Cache) *StatusCache {
	return &StatusCache{cache: cache}
}

func (sc *StatusCache) Get(ctx context.Context, taskID string) (*Entry, error) {
	key := fmt.Sprintf("%s%s", statusKeyPrefix, taskID)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (sc *StatusCache) Set(ctx context.Context, taskID string, entry Entry) error {
	key := fmt.Sprintf("%s%s", statusKeyPrefix, taskID)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return sc.cache.Set(ctx, key, data, statusTTL)
}

func (sc *StatusCache) Delete(ctx context.Context, taskID string) error {
	key := fmt.Sprintf("%s%s", statusKeyPrefix, taskID)
	return sc.cache.Del(ctx, key)
}
