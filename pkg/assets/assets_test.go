package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/httputil"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "backgrounds"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "backgrounds", "bg.png")
	if err := os.WriteFile(path, pngBytes(t, 30, 20), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir)
	img, err := l.Load(context.Background(), "backgrounds/bg.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("bounds = %v", b)
	}

	// Memoized: removing the file does not affect later loads.
	_ = os.Remove(path)
	if _, err := l.Load(context.Background(), "backgrounds/bg.png"); err != nil {
		t.Errorf("memoized Load: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644)
	l := NewLoader(dir)
	ctx := context.Background()

	if _, err := l.Load(ctx, ""); !errors.Is(err, ErrNoAsset) {
		t.Errorf("empty ref: %v", err)
	}
	if _, err := l.Load(ctx, "missing.png"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing: %v", err)
	}
	if _, err := l.Load(ctx, "../etc/passwd"); err == nil {
		t.Error("path traversal should fail")
	}
	if _, err := l.Load(ctx, "junk.png"); err == nil {
		t.Error("undecodable asset should fail")
	}
	if _, err := l.Load(ctx, "https://example.invalid/bg.png"); err == nil {
		t.Error("remote ref without fetcher should fail")
	}
}

func TestLoadRemoteOnce(t *testing.T) {
	body := pngBytes(t, 8, 8)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader("", WithFetcher(httputil.NewFetcher(nil)))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background(), srv.URL+"/bg.png"); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := hits.Load(); n != 1 {
		t.Errorf("remote fetched %d times, want 1", n)
	}
}
