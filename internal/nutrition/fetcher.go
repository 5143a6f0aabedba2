package nutrition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ImageFetcher downloads a product image to a local file. The caller
// removes the file when done.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher downloads images over plain HTTP into temp files.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 30 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading image: status %d", resp.StatusCode)
	}

	suffix := ".jpg"
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "png") {
		suffix = ".png"
	}
	tmp, err := os.CreateTemp("", "mercapi-label-*"+suffix)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
