package frigateapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultHost = "localhost" // where a locally launched frigate answers
	DefaultPort = 5000        // frigate's unauthenticated HTTP API port

	DefaultTimeout       = 10 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 1 * time.Second
	DefaultMaxRetryDelay = 30 * time.Second

	// DefaultCacheDuration is the stats cache validity. Stats move fast,
	// so the window is short; it mainly absorbs a TUI redrawing more
	// often than frigate updates.
	DefaultCacheDuration = 5 * time.Second
)

// Client talks to a running frigate instance over its HTTP API.
type Client struct {
	BaseURL    string // e.g. "http://localhost:5000"
	HTTPClient *http.Client

	// Retry policy for transient failures.
	MaxRetries            int
	RetryDelay            time.Duration // delay before the first retry
	MaxRetryDelay         time.Duration // backoff ceiling
	UseExponentialBackoff bool

	// CacheDuration is how long a stats snapshot stays fresh (0 = no cache).
	CacheDuration time.Duration

	cacheMu     sync.RWMutex
	cachedStats *Stats
	cachedAt    time.Time
}

// NewClient creates a client for a frigate instance by host and port.
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL
// (e.g., "http://localhost:5000").
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		CacheDuration:         DefaultCacheDuration,
	}
}

// SetTimeout adjusts the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) { c.HTTPClient.Timeout = timeout }

// SetRetry adjusts the retry budget and the delay before the first retry.
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// withRetry runs attempt until it succeeds, fails with a non-retryable
// error, or runs out of budget. Delays grow exponentially up to
// MaxRetryDelay when UseExponentialBackoff is set.
func (c *Client) withRetry(attempt func() error) error {
	delay := c.RetryDelay
	for try := 0; ; try++ {
		err := attempt()
		if err == nil || !IsRetryable(err) || try >= c.MaxRetries {
			return err
		}
		time.Sleep(delay)
		if c.UseExponentialBackoff {
			delay = min(delay*2, c.MaxRetryDelay)
		}
	}
}

// getBody performs one GET against the API and returns the body of a
// 200 response. what names the request in error messages.
func (c *Client) getBody(path, what string) ([]byte, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return nil, NewNetworkError(what+" request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read "+what+" body", err)
	}
	return body, nil
}

// Ping performs a single health check against the API, no retries.
// Returns nil if frigate is up and answering.
func (c *Client) Ping() error {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/api/version")
	if err != nil {
		return NewNetworkError("frigate unreachable", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) *APIError {
	return NewHTTPError(resp.StatusCode, "frigate answered "+resp.Status)
}

// Version retrieves the running frigate version string.
func (c *Client) Version() (string, error) {
	var version string
	err := c.withRetry(func() error {
		body, err := c.getBody("/api/version", "version")
		if err != nil {
			return err
		}
		// The endpoint answers with a plain text body, not JSON.
		version = strings.TrimSpace(string(body))
		if version == "" {
			return NewParseError("empty version body", nil)
		}
		return nil
	})
	return version, err
}

// Stats retrieves the current stats snapshot, serving a cached one while
// it is still fresh.
func (c *Client) Stats() (*Stats, error) {
	if cached := c.GetCachedStats(); cached != nil {
		return cached, nil
	}
	return c.RefreshStats()
}

// RefreshStats fetches a fresh snapshot, bypassing and updating the cache.
func (c *Client) RefreshStats() (*Stats, error) {
	var stats *Stats
	err := c.withRetry(func() error {
		body, err := c.getBody("/api/stats", "stats")
		if err != nil {
			return err
		}
		var parsed Stats
		if err := json.Unmarshal(body, &parsed); err != nil {
			return NewParseError("failed to parse stats response", err)
		}
		stats = &parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.storeCache(stats)
	return stats, nil
}

// GetCachedStats returns a copy of the cached snapshot while it is fresh,
// without touching the network. Returns nil otherwise.
func (c *Client) GetCachedStats() *Stats {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	if c.cachedStats == nil || time.Since(c.cachedAt) >= c.CacheDuration {
		return nil
	}
	cached := *c.cachedStats
	return &cached
}

func (c *Client) storeCache(stats *Stats) {
	if c.CacheDuration <= 0 {
		return
	}
	c.cacheMu.Lock()
	c.cachedStats = stats
	c.cachedAt = time.Now()
	c.cacheMu.Unlock()
}

// InvalidateCache drops the cached snapshot; the next Stats call fetches.
func (c *Client) InvalidateCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cachedStats = nil
	c.cachedAt = time.Time{}
}

// SetCacheDuration adjusts the cache validity window. Zero disables
// caching entirely.
func (c *Client) SetCacheDuration(duration time.Duration) {
	c.CacheDuration = duration
	if duration == 0 {
		c.InvalidateCache()
	}
}
