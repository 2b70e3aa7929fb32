// Package api is the client of the Babamul REST service.
//
// Client covers account management, Kafka credentials, alert queries,
// cutouts, object lookups and bulk cross-match retrieval. It implements
// alert.Fetcher, so alerts it returns backfill their photometry, cutouts
// and cross-matches through the same client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/config"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/observability"
	"github.com/boom-astro/babamul/internal/storage"
)

// Default configuration values.
const (
	DefaultTimeout     = config.DefaultRequestTimeout
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// Client is a Babamul REST client. It is safe for concurrent use.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	batchSize   int
	cache       storage.CutoutCache
	logger      zerolog.Logger

	mu    sync.RWMutex
	token string
}

var _ alert.Fetcher = (*Client)(nil)

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithToken sets the bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithBatchSize sets how many object ids a bulk request carries.
func WithBatchSize(n int) ClientOption {
	return func(c *Client) {
		c.batchSize = n
	}
}

// WithCutoutCache serves GetCutouts from cache and fills it on a miss.
func WithCutoutCache(cache storage.CutoutCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		batchSize:   config.DefaultBatchSize,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New validates cfg and creates a client from it. Options are applied after cfg.
func New(cfg config.APIConfig, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []ClientOption{WithToken(cfg.Token)}
	if cfg.Timeout > 0 {
		base = append(base, WithTimeout(cfg.Timeout))
	}
	return NewClient(cfg.BaseURL, append(base, opts...)...), nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current bearer token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// call describes one REST request.
type call struct {
	op     string // metrics label
	method string
	path   string
	query  url.Values
	body   any        // JSON-encoded when non-nil
	form   url.Values // form-encoded when non-nil
	noAuth bool
}

// Request sends an authenticated request and returns the decoded JSON body.
// Numbers decode as json.Number.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	var out any
	err := c.do(ctx, call{op: "request", method: method, path: path, query: query, body: body}, &out)
	return out, err
}

// do performs a request with retries and exponential backoff. Transport
// failures, 429 and 5xx are retried; other non-2xx responses are returned
// as *domain.APIError immediately.
func (c *Client) do(ctx context.Context, r call, out any) error {
	start := time.Now()
	err := c.doWithRetry(ctx, r, out)
	observability.RecordAPIRequest(r.op, time.Since(start).Seconds(), errorKind(err))
	return err
}

func (c *Client) doWithRetry(ctx context.Context, r call, out any) error {
	token := c.Token()
	if !r.noAuth && token == "" {
		return &domain.APIError{
			StatusCode: http.StatusUnauthorized,
			Message:    "authentication required: log in or provide a token",
			Path:       r.path,
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var payload []byte
	contentType := ""
	switch {
	case r.form != nil:
		payload = []byte(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
		contentType = "application/json"
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			observability.RecordAPIRetry(r.op)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, target, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if !r.noAuth {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %s %s: %v", domain.ErrConnection, r.method, r.path, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: read response: %v", domain.ErrConnection, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = apiError(resp.StatusCode, r.path, respBody)
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			// Client errors are not retried
			return apiError(resp.StatusCode, r.path, respBody)
		}

		if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(respBody))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return &domain.DeserializationError{Path: r.path, Reason: "invalid JSON response: " + err.Error()}
		}
		return nil
	}

	c.logger.Warn().Str("op", r.op).Str("path", r.path).Int("attempts", c.maxRetries+1).Err(lastErr).Msg("request failed after retries")
	return lastErr
}

// apiError builds the error for a non-2xx response. The message comes from
// the "message" or "detail" field of a JSON body, else the raw body.
func apiError(status int, path string, body []byte) *domain.APIError {
	msg := strings.TrimSpace(string(body))
	var parsed map[string]any
	if json.Unmarshal(body, &parsed) == nil {
		for _, key := range []string{"message", "detail", "error"} {
			if v, ok := parsed[key]; ok && v != nil {
				if s, ok := v.(string); ok {
					msg = s
				} else {
					msg = fmt.Sprint(v)
				}
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.APIError{StatusCode: status, Message: msg, Path: path}
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrAuthentication):
		return "auth"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConnection):
		return "connection"
	case errors.Is(err, domain.ErrDeserialization):
		return "decode"
	}
	return "api"
}
