package preview

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap/zaptest"
)

func thumbnailServer(t *testing.T, width, height int) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
}

func TestEnsure(t *testing.T) {
	srv := thumbnailServer(t, 1280, 720)
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	path, err := cache.Ensure(context.Background(), "dQw4w9WgXcQ", srv.URL)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	if got := img.Bounds().Dx(); got != 320 {
		t.Errorf("preview width = %d, want 320", got)
	}
}

func TestEnsure_CacheHitSkipsFetch(t *testing.T) {
	srv := thumbnailServer(t, 640, 360)

	cache, err := NewCache(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	ctx := context.Background()
	first, err := cache.Ensure(ctx, "dQw4w9WgXcQ", srv.URL)
	if err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	srv.Close()

	// The server is gone; a second call must come from the cache.
	second, err := cache.Ensure(ctx, "dQw4w9WgXcQ", srv.URL)
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if _, err := os.Stat(second); err != nil {
		t.Errorf("cached preview missing: %v", err)
	}
}

func TestEnsure_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	if _, err := cache.Ensure(context.Background(), "missing00x1", srv.URL); err == nil {
		t.Errorf("expected error for 404 thumbnail")
	}
}
