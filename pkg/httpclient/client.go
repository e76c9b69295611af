package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"foolcalls/pkg/logger"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient sends browser-like headers with a user agent rotated per request.
	BrowserClient ClientType = "browser"

	// SimpleClient sends curl-like headers. Some CDNs block browser user agents coming
	// from non-browser TLS stacks but let simple tools through.
	SimpleClient ClientType = "simple"
)

const (
	maxRedirects   = 10
	defaultBackoff = time.Second
	simpleAgent    = "curl/8.7.1"
)

// DefaultUserAgents is the pool BrowserClient rotates through when Options.UserAgents is empty.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// ErrEmptyBody is returned by Fetch when the server answered 200 with no content.
var ErrEmptyBody = errors.New("empty response body")

// StatusError is returned by Fetch for any non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Options tune throttling and retries.
type Options struct {
	// MinDelay is the minimum spacing between requests; MaxDelay adds random jitter on top.
	MinDelay time.Duration
	MaxDelay time.Duration
	Timeout  time.Duration
	// Retries is the number of extra attempts after a transport error or a 5xx response.
	Retries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff    time.Duration
	UserAgents []string
	Logger     logger.Logger
}

// HTTPClient wraps an http.Client with header profiles and a request throttle.
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
	limiter    *rate.Limiter
	jitter     time.Duration
	retries    int
	backoff    time.Duration
	userAgents []string
	log        logger.Logger
}

// NewClient creates a new HTTP client with the specified type
func NewClient(clientType ClientType, opts Options) *HTTPClient {
	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	limit := rate.Inf
	if opts.MinDelay > 0 {
		limit = rate.Every(opts.MinDelay)
	}
	var jitter time.Duration
	if opts.MaxDelay > opts.MinDelay {
		jitter = opts.MaxDelay - opts.MinDelay
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = DefaultUserAgents
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &HTTPClient{
		client:     client,
		clientType: clientType,
		limiter:    rate.NewLimiter(limit, 1),
		jitter:     jitter,
		retries:    max(opts.Retries, 0),
		backoff:    opts.Backoff,
		userAgents: opts.UserAgents,
		log:        opts.Logger,
	}
}

// Do waits for the throttle, then executes req with the headers of the client type.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.wait(req.Context()); err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Fetch downloads url and returns the response body. Transport errors and 5xx responses
// are retried with a linear backoff; any other non-200 status fails immediately.
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.log.Warn("Retrying request",
				logger.String("url", url),
				logger.Int("attempt", attempt),
				logger.Error(lastErr))
			if err := sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
				return nil, err
			}
		}

		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable(ctx, err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.retries+1, lastErr)
}

func (c *HTTPClient) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("GET %s: %w", url, ErrEmptyBody)
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrEmptyBody) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// wait blocks until the limiter admits a request, then sleeps a random jitter.
func (c *HTTPClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if c.jitter <= 0 {
		return nil
	}
	return sleep(ctx, rand.N(c.jitter))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", c.userAgents[rand.IntN(len(c.userAgents))])
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Upgrade-Insecure-Requests", "1")

	case SimpleClient:
		req.Header.Set("User-Agent", simpleAgent)

	default:
		// Go's default User-Agent
	}
}
