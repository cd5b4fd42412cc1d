// Package fetch retrieves index pages and bulletin PDFs over HTTP with
// retries, backoff and a minimum interval between requests.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// RetryableError wraps transient failures (network errors, 429, 5xx).
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retryable: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	MinInterval time.Duration // minimum gap between request starts
	MaxRetries  int
	MaxBytes    int64
	UserAgent   string
}

// Client performs polite GETs against the bulletin site.
type Client struct {
	httpClient *http.Client
	opts       Options
	log        *slog.Logger

	// backoff is swappable so tests do not sleep for seconds.
	backoff func(int) time.Duration

	mu   sync.Mutex
	next time.Time
}

func NewClient(opts Options, log *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 52428800
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "bteparse/1.0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		log:        log,
		backoff:    Backoff,
	}
}

// Get fetches url and returns its body, retrying transient failures.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.opts.MaxRetries {
		body, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
		if attempt == c.opts.MaxRetries-1 {
			break
		}
		c.log.Warn("retryable fetch error", "url", url, "attempt", attempt, "error", err)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: giving up after %d attempts: %w", url, c.opts.MaxRetries, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBytes+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.opts.MaxBytes {
		return nil, fmt.Errorf("get %s: body exceeds %d bytes", url, c.opts.MaxBytes)
	}
	return body, nil
}

// wait blocks until the minimum interval since the previous request start
// has elapsed. Slots are reserved under the lock, so concurrent callers
// queue up instead of bursting.
func (c *Client) wait(ctx context.Context) error {
	if c.opts.MinInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	now := time.Now()
	start := c.next
	if start.Before(now) {
		start = now
	}
	c.next = start.Add(c.opts.MinInterval)
	c.mu.Unlock()

	delay := time.Until(start)
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
