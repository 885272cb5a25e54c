package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/ports"
)

// maxImageBytes bounds a single read.
const maxImageBytes = 32 << 20

// ErrImageTooLarge is returned instead of a truncated image.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// ContentReader loads item bytes from local paths or http(s) locators.
type ContentReader struct {
	client   *http.Client
	maxBytes int64
}

var _ ports.ContentReader = (*ContentReader)(nil)

// NewContentReader wires an HTTP client for remote locators.
func NewContentReader(client *http.Client) *ContentReader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ContentReader{client: client, maxBytes: maxImageBytes}
}

// Read returns the raw bytes behind item.Locator.
func (r *ContentReader) Read(ctx context.Context, item domain.Item) ([]byte, error) {
	if item.Locator == "" {
		return nil, fmt.Errorf("item %s has no locator", item.Name)
	}
	if isRemote(item.Locator) {
		return r.download(ctx, item.Locator)
	}

	f, err := os.Open(item.Locator)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", item.Locator, err)
	}
	defer f.Close()

	return r.readCapped(f, item.Locator)
}

func (r *ContentReader) download(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: %s", locator, resp.Status)
	}
	return r.readCapped(resp.Body, locator)
}

// readCapped reads one byte past the limit to tell a full image from an oversized one.
func (r *ContentReader) readCapped(src io.Reader, locator string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", locator, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("read %s: %w (%d bytes)", locator, ErrImageTooLarge, r.maxBytes)
	}
	return data, nil
}
