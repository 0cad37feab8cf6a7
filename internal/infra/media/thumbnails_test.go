package media

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ethereum/go-ethereum/common"
)

var thumbContract = common.HexToAddress("0x0000000000000000000000000000000000006001")

// imageServer serves a solid 512x300 PNG and counts requests.
func imageServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		img := image.NewRGBA(image.Rect(0, 0, 512, 300))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		img.Set(0, 0, color.Black)
		w.Header().Set("Content-Type", "image/png")
		png.Encode(w, img)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestThumbnailCache_FetchAndResize(t *testing.T) {
	var hits int
	srv := imageServer(t, &hits)

	cache, err := NewThumbnailCache(t.TempDir(), 256)
	if err != nil {
		t.Fatalf("NewThumbnailCache failed: %v", err)
	}

	path, err := cache.Fetch(thumbContract, 0, srv.URL+"/token/0.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if path != cache.Path(thumbContract, 0) {
		t.Errorf("unexpected thumbnail path %q", path)
	}

	thumb, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("failed to open thumbnail: %v", err)
	}
	b := thumb.Bounds()
	if b.Dx() != 256 || b.Dy() != 150 {
		t.Errorf("expected 256x150 fit, got %dx%d", b.Dx(), b.Dy())
	}

	// Second fetch is a cache hit; the server is not contacted again.
	if _, err := cache.Fetch(thumbContract, 0, srv.URL+"/token/0.png"); err != nil {
		t.Fatalf("cached Fetch failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 upstream request, got %d", hits)
	}
}

func TestThumbnailCache_RejectsBadInput(t *testing.T) {
	cache, err := NewThumbnailCache(t.TempDir(), 256)
	if err != nil {
		t.Fatalf("NewThumbnailCache failed: %v", err)
	}

	if _, err := cache.Fetch(thumbContract, 1, "ipfs://QmSomething"); err == nil {
		t.Error("expected rejection for non-http scheme")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	if _, err := cache.Fetch(thumbContract, 2, srv.URL+"/missing.png"); err == nil {
		t.Error("expected error for upstream 404")
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	t.Cleanup(garbage.Close)
	if _, err := cache.Fetch(thumbContract, 3, garbage.URL+"/garbage.png"); err == nil {
		t.Error("expected decode error for non-image body")
	}
}

func TestThumbnailCache_PathShape(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewThumbnailCache(dir, 0)
	if err != nil {
		t.Fatalf("NewThumbnailCache failed: %v", err)
	}

	path := cache.Path(thumbContract, 7)
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("base directory missing: %v", err)
	}
	want := "0x0000000000000000000000000000000000006001-7.png"
	if got := filepath.Base(path); got != want {
		t.Errorf("expected file name %q, got %q", want, got)
	}
}
