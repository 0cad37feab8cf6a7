// Package media caches display thumbnails for listed tokens. Purely
// decorative: a failed fetch never affects the marketplace state, so all
// work happens in the background after a listing commits.
package media

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultThumbnailSize is used when the configured size is missing.
const DefaultThumbnailSize = 256

// ThumbnailCache downloads token images and stores resized thumbnails.
type ThumbnailCache struct {
	basePath string
	size     int
	client   *http.Client
}

// NewThumbnailCache creates a cache rooted at basePath.
func NewThumbnailCache(basePath string, size int) (*ThumbnailCache, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	// Keep connection reuse bounded; thumbnail hosts vary per collection.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &ThumbnailCache{
		basePath: basePath,
		size:     size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Fetch downloads the image at url for (contract, tokenID) and stores a
// resized thumbnail, returning the local path. A cached file short-circuits.
func (c *ThumbnailCache) Fetch(contract common.Address, tokenID uint64, url string) (string, error) {
	filePath := c.Path(contract, tokenID)

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Cache hit
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported image url scheme: %s", url)
	}

	resp, err := c.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Fit inside a square box of the configured size, preserving aspect ratio.
	thumb := imaging.Fit(srcImg, c.size, c.size, imaging.Lanczos)

	if err := imaging.Save(thumb, filePath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return filePath, nil
}

// Path returns the local thumbnail path for a token, whether cached or not.
// Contract addresses are already filesystem-safe hex; token ids are numeric.
func (c *ThumbnailCache) Path(contract common.Address, tokenID uint64) string {
	name := fmt.Sprintf("%s-%d.png", strings.ToLower(contract.Hex()), tokenID)
	return filepath.Join(c.basePath, name)
}
