// Package preview caches downscaled thumbnail images for the info page.
package preview

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const previewWidth = 320

type Cache struct {
	dir    string
	client *http.Client
	logger *zap.Logger
}

func NewCache(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return &Cache{
		dir:    dir,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}, nil
}

// Path returns where a video's preview lives, whether or not it exists yet.
func (c *Cache) Path(videoID string) string {
	return filepath.Join(c.dir, videoID+".jpg")
}

// Ensure fetches the remote thumbnail, downscales it to a bounded width and
// caches the result. Returns the cached path; a hit skips the fetch.
func (c *Cache) Ensure(ctx context.Context, videoID, thumbnailURL string) (string, error) {
	path := c.Path(videoID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return "", fmt.Errorf("build thumbnail request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch thumbnail: status %d", resp.StatusCode)
	}

	src, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("decode thumbnail: %w", err)
	}

	resized := imaging.Resize(src, previewWidth, 0, imaging.Lanczos)
	if err := imaging.Save(resized, path, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save preview: %w", err)
	}

	c.logger.Info("Preview cached",
		zap.String("video_id", videoID),
		zap.String("path", path),
	)
	return path, nil
}
