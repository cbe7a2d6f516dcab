// Package fetcher provides the rate-limited HTTP client every other
// component goes through. It enforces per-host spacing, retries 429s with
// exponential backoff and 5xx with linear backoff, and fails fast on other
// client errors.
package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxRetries     = 3
	defaultTimeout = 30 * time.Second
	// Responses larger than this are truncated; feeds and article pages fit
	// comfortably under it.
	maxBodyBytes = 4 << 20
)

// Response is the portion of an HTTP response the pipeline consumes. Body is
// fully read before Fetch returns.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
}

// Options tune a single request. Zero values fall back to the client config.
type Options struct {
	Timeout time.Duration
	Accept  string
}

// Recorder receives the outcome of every request attempt.
// metrics.Collector satisfies it.
type Recorder interface {
	RecordFetch(host string, duration time.Duration, err error)
}

type Config struct {
	UserAgent    string
	Timeout      time.Duration
	HostInterval time.Duration
	// AllowPrivateHosts disables the SSRF guard. Only tests and local
	// development set it.
	AllowPrivateHosts bool
	// Recorder is optional; nil disables per-host metrics.
	Recorder Recorder
}

// Client is the rate-limited fetcher. It is safe for sequential reuse across
// an entire ingestion pass; the host limiter map is shared state.
type Client struct {
	http         *http.Client
	limiter      *HostLimiter
	userAgent    string
	timeout      time.Duration
	allowPrivate bool
	recorder     Recorder
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:      NewHostLimiter(cfg.HostInterval),
		userAgent:    cfg.UserAgent,
		timeout:      cfg.Timeout,
		allowPrivate: cfg.AllowPrivateHosts,
		recorder:     cfg.Recorder,
		logger:       logger,
		sleep:        sleepCtx,
	}
}

// Fetch issues a GET with per-host spacing and the retry policy from the
// package doc. The response body is drained and returned; callers never see
// a live connection.
func (c *Client) Fetch(ctx context.Context, urlStr string, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodGet, urlStr, opts)
}

// Head issues a HEAD request under the same rate limiting, used by discovery
// to probe candidate paths cheaply.
func (c *Client) Head(ctx context.Context, urlStr string, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodHead, urlStr, opts)
}

func (c *Client) do(ctx context.Context, method, urlStr string, opts Options) (*Response, error) {
	if !c.allowPrivate {
		if err := ValidateURL(urlStr); err != nil {
			return nil, err
		}
	}

	// maxRetries counts retries after the initial attempt.
	var lastErr error
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		if err := c.limiter.WaitForHost(ctx, urlStr); err != nil {
			return nil, &FetchError{Kind: KindNetwork, URL: urlStr, Err: err}
		}

		start := time.Now()
		resp, err := c.attempt(ctx, method, urlStr, opts)
		c.record(urlStr, time.Since(start), err)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == maxRetries+1 {
			return nil, lastErr
		}

		c.logger.WarnContext(ctx, "fetch attempt failed, backing off",
			"url", urlStr, "attempt", attempt, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, &FetchError{Kind: KindNetwork, URL: urlStr, Err: err}
		}
	}

	return nil, lastErr
}

func (c *Client) record(urlStr string, duration time.Duration, err error) {
	if c.recorder == nil {
		return
	}
	if u, parseErr := url.Parse(urlStr); parseErr == nil {
		c.recorder.RecordFetch(u.Hostname(), duration, err)
	}
}

func (c *Client) attempt(ctx context.Context, method, urlStr string, opts Options) (*Response, error) {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, urlStr, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: urlStr, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if opts.Accept != "" {
		req.Header.Set("Accept", opts.Accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(urlStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(urlStr, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &FetchError{Kind: KindRateLimited, StatusCode: resp.StatusCode, URL: urlStr}
	}
	if resp.StatusCode >= 400 {
		return nil, &FetchError{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, URL: urlStr}
	}

	finalURL := urlStr
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   finalURL,
	}, nil
}

// retryDelay returns the backoff for the given failed attempt: 429 retries
// exponentially (1s, 2s, 4s), 5xx linearly (1s, 2s, 3s), everything else is
// terminal.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return 0, false
	}

	switch {
	case fe.Kind == KindRateLimited:
		return time.Second << (attempt - 1), true
	case fe.Kind == KindHTTPStatus && fe.StatusCode >= 500:
		return time.Duration(attempt) * time.Second, true
	default:
		return 0, false
	}
}

func classifyTransportError(urlStr string, err error) *FetchError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: urlStr, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline exceeded") {
		return &FetchError{Kind: KindTimeout, URL: urlStr, Err: err}
	}
	return &FetchError{Kind: KindNetwork, URL: urlStr, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
