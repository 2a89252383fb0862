package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/invsync/backend/internal/domain/integration"
)

const (
	// maxResponseSize is the maximum accepted marketplace response size (10MB)
	maxResponseSize = 10 * 1024 * 1024
	// maxErrorBodySize bounds the response body kept in HTTPStatusError
	maxErrorBodySize = 512
	// maxRetryAfter caps a server supplied Retry-After hint
	maxRetryAfter = 2 * time.Minute
)

// ClientConfig holds the transport settings shared by all marketplace clients
type ClientConfig struct {
	BaseURL string
	// Timeout bounds each individual HTTP attempt
	Timeout time.Duration
	// MaxAttempts is the retry budget for non-429 failures
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number between retries
	BaseDelay time.Duration
	// DefaultRetryAfter is used when a 429 carries no usable Retry-After
	DefaultRetryAfter time.Duration
	// MaxRateLimitWaits caps consecutive 429 waits, which do not consume MaxAttempts
	MaxRateLimitWaits int
	// RequestsPerSecond throttles outbound calls; zero disables throttling
	RequestsPerSecond float64
	UserAgent         string
}

// DefaultClientConfig returns the default transport settings
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           30 * time.Second,
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		DefaultRetryAfter: 5 * time.Second,
		MaxRateLimitWaits: 10,
		RequestsPerSecond: 5,
		UserAgent:         "invsync/1.0",
	}
}

// withDefaults fills unset fields from DefaultClientConfig
func (c ClientConfig) withDefaults() ClientConfig {
	d := DefaultClientConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.DefaultRetryAfter <= 0 {
		c.DefaultRetryAfter = d.DefaultRetryAfter
	}
	if c.MaxRateLimitWaits <= 0 {
		c.MaxRateLimitWaits = d.MaxRateLimitWaits
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}

// RetryRecorder observes retried marketplace calls
type RetryRecorder interface {
	ObserveRetry(marketplace integration.MarketplaceType, reason string)
}

type noopRetryRecorder struct{}

func (noopRetryRecorder) ObserveRetry(integration.MarketplaceType, string) {}

// authenticator adds marketplace specific auth to an outgoing request.
// It owns the final encoding of params into the request URL.
type authenticator interface {
	authenticate(req *http.Request, params url.Values, body []byte)
}

// baseClient performs authenticated requests with retry, backoff and
// rate-limit handling. It holds no per-sync state.
type baseClient struct {
	kind       integration.MarketplaceType
	cfg        ClientConfig
	httpClient *http.Client
	auth       authenticator
	limiter    *rate.Limiter
	logger     *zap.Logger
	retries    RetryRecorder
	sleep      func(ctx context.Context, d time.Duration) error
}

func newBaseClient(kind integration.MarketplaceType, cfg ClientConfig, auth authenticator, logger *zap.Logger, retries RetryRecorder) *baseClient {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries == nil {
		retries = noopRetryRecorder{}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &baseClient{
		kind:       kind,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		auth:       auth,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.With(zap.String("marketplace_type", string(kind))),
		retries:    retries,
		sleep:      sleepContext,
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// linearBackOff waits step, 2*step, 3*step... and stops after maxRetries
type linearBackOff struct {
	step       time.Duration
	maxRetries int
	retries    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	if b.retries >= b.maxRetries {
		return backoff.Stop
	}
	b.retries++
	return time.Duration(b.retries) * b.step
}

func (b *linearBackOff) Reset() { b.retries = 0 }

// retryPolicy returns the schedule for budget consuming failures
func (c *baseClient) retryPolicy(maxAttempts int) backoff.BackOff {
	if maxAttempts <= 1 {
		return &backoff.StopBackOff{}
	}
	return &linearBackOff{step: c.cfg.BaseDelay, maxRetries: maxAttempts - 1}
}

// request sends one logical call with the configured attempt budget
func (c *baseClient) request(ctx context.Context, method, endpoint string, params url.Values, payload any) ([]byte, error) {
	return c.requestWithBudget(ctx, method, endpoint, params, payload, c.cfg.MaxAttempts)
}

// requestWithBudget sends one logical call. HTTP 429 waits for Retry-After
// without consuming the attempt budget; any other failure is retried on the
// linear backoff schedule until maxAttempts is reached, then
// *integration.TransientAPIError is returned carrying the last failure.
func (c *baseClient) requestWithBudget(ctx context.Context, method, endpoint string, params url.Values, payload any, maxAttempts int) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ecommerce: encode request body: %w", err)
		}
	}

	policy := c.retryPolicy(maxAttempts)
	var lastErr error
	attempts := 0
	rateLimitWaits := 0

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		status, header, respBody, err := c.do(ctx, method, endpoint, params, body)
		if err == nil && status >= 200 && status < 300 {
			return respBody, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if err == nil && status == http.StatusTooManyRequests {
			lastErr = &integration.HTTPStatusError{StatusCode: status, Body: truncate(respBody)}
			rateLimitWaits++
			if rateLimitWaits > c.cfg.MaxRateLimitWaits {
				break
			}
			wait := parseRetryAfter(header.Get("Retry-After"), c.cfg.DefaultRetryAfter, time.Now())
			c.logger.Warn("Marketplace rate limited request",
				zap.String("endpoint", endpoint),
				zap.Duration("retry_after", wait),
				zap.Int("rate_limit_waits", rateLimitWaits),
			)
			c.retries.ObserveRetry(c.kind, "rate_limited")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		attempts++
		if err == nil {
			err = &integration.HTTPStatusError{StatusCode: status, Body: truncate(respBody)}
		}
		lastErr = err

		c.logger.Warn("Marketplace request failed",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		c.retries.ObserveRetry(c.kind, "error")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &integration.TransientAPIError{
		Endpoint: endpoint,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// do performs a single HTTP attempt
func (c *baseClient) do(ctx context.Context, method, endpoint string, params url.Values, body []byte) (int, http.Header, []byte, error) {
	target := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("ecommerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	if c.auth != nil {
		c.auth.authenticate(req, query, body)
	} else {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("ecommerce: failed to read response: %w", err)
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

// healthCheck tries candidate paths in order and returns the first that
// answers 2xx. Each candidate gets a single attempt; 429 waits still apply.
func (c *baseClient) healthCheck(ctx context.Context, paths []string) (string, error) {
	var lastErr error
	for _, path := range paths {
		if _, err := c.requestWithBudget(ctx, http.MethodGet, path, nil, nil, 1); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Debug("Health candidate did not respond",
				zap.String("endpoint", path),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %v", integration.ErrHealthCheckFailed, lastErr)
}

// parseRetryAfter reads a Retry-After header given as delta-seconds or an
// HTTP date. Missing or unparsable values fall back to def.
func parseRetryAfter(value string, def time.Duration, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}

	var wait time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return def
		}
		wait = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		wait = at.Sub(now)
		if wait < 0 {
			wait = 0
		}
	} else {
		return def
	}

	if wait > maxRetryAfter {
		return maxRetryAfter
	}
	return wait
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodySize {
		return string(body[:maxErrorBodySize])
	}
	return string(body)
}
