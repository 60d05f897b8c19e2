package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxLogBytes         = 16 << 20
)

// Document is a fetched log with the name its format is inferred from.
type Document struct {
	Name string
	Data []byte
}

// Fetcher retrieves the current tag log.
type Fetcher interface {
	Fetch(ctx context.Context) (Document, error)
}

// HTTPFetcher downloads the log with a GET request.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithFetchTimeout bounds one fetch.
func WithFetchTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewHTTPFetcher creates a fetcher for url.
func NewHTTPFetcher(url string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{url: url, client: http.DefaultClient, timeout: defaultFetchTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs the GET. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, fmt.Errorf("%w: %s returned %d", ErrFetch, f.url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogBytes))
	if err != nil {
		return Document{}, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	return Document{Name: f.url, Data: data}, nil
}

// FileFetcher reads the log from disk.
type FileFetcher struct {
	path string
}

// NewFileFetcher creates a fetcher for path.
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Fetch reads the whole file.
func (f *FileFetcher) Fetch(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return Document{Name: f.path, Data: data}, nil
}
