package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Default transport settings for remote sources.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultRetryMax     = 3
)

// Fetcher reads source documents from disk or over HTTP.
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher builds a Fetcher whose HTTP client gives up after timeout per
// attempt and retries at most retryMax times.
func NewFetcher(timeout time.Duration, retryMax int) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if retryMax < 0 {
		retryMax = 0
	}
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = slog.Default()
	return &Fetcher{client: c}
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// LocalPath returns the filesystem path for a local location, stripping a
// file:// scheme if present. It returns "" for remote locations.
func LocalPath(location string) string {
	if IsRemote(location) {
		return ""
	}
	if strings.HasPrefix(location, "file://") {
		if u, err := url.Parse(location); err == nil {
			return u.Path
		}
	}
	return location
}

// Read returns the raw bytes at location. Every failure wraps
// ErrSourceUnavailable.
func (f *Fetcher) Read(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrSourceUnavailable)
	}
	if !IsRemote(location) {
		data, err := os.ReadFile(LocalPath(location))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return data, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrSourceUnavailable, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http get: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrSourceUnavailable, err)
	}
	return data, nil
}
