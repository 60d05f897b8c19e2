package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tagboard/pkg/logger"
)

// ErrStatus is returned for unexpected HTTP status codes.
var ErrStatus = errors.New("unexpected status")

// Client talks to a running tagboard service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks that /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz %d", ErrStatus, resp.StatusCode)
	}
	return nil
}

// PostEvents submits one batch. 202 and 200 both carry an AppendResult.
func (c *Client) PostEvents(ctx context.Context, batch []Event) (AppendResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return AppendResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return AppendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res AppendResult
	if err := c.do(req, &res, http.StatusAccepted, http.StatusOK); err != nil {
		return AppendResult{}, err
	}
	return res, nil
}

// Leaderboard fetches the full board.
func (c *Client) Leaderboard(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/leaderboard", http.NoBody)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := c.do(req, &entries, http.StatusOK); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) do(req *http.Request, out any, ok ...int) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	for _, code := range ok {
		if resp.StatusCode == code {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s %d: %s", ErrStatus, req.URL.Path, resp.StatusCode, bytes.TrimSpace(data))
}

// batches splits events into chunks of at most size.
func batches(events []Event, size int) [][]Event {
	var out [][]Event
	for len(events) > 0 {
		n := min(size, len(events))
		out = append(out, events[:n])
		events = events[n:]
	}
	return out
}

// submitEvents posts events in batches from config.Workers goroutines.
// Batches may arrive out of order; the service re-sorts the log.
func submitEvents(ctx context.Context, client *Client, config *Config, events []Event, stats *Stats) {
	log := logger.Get()
	work := batches(events, config.BatchSize)
	log.Info(ctx, "submitting events",
		logger.Int("events", len(events)),
		logger.Int("batches", len(work)),
		logger.Int("workers", config.Workers))

	var (
		submitted, failed   int64
		accepted, duplicate int64
	)
	ch := make(chan []Event)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range ch {
				res, err := client.PostEvents(ctx, batch)
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Warn(ctx, "batch failed", logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&accepted, int64(res.Accepted))
				atomic.AddInt64(&duplicate, int64(res.Duplicates))
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, b := range work {
			select {
			case <-ctx.Done():
				return
			case ch <- b:
			}
		}
	}()
	wg.Wait()

	stats.BatchesSubmitted = int(submitted)
	stats.BatchesFailed = int(failed)
	stats.EventsAccepted = int(accepted)
	stats.EventsDuplicate = int(duplicate)
	log.Info(ctx, "event submission completed",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicates", stats.EventsDuplicate),
		logger.Int("failedBatches", stats.BatchesFailed))
}
