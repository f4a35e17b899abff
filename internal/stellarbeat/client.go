// Package stellarbeat is a read-only client for the Stellarbeat network
// monitoring API.
package stellarbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mbd888/stellarbeat-mcp/internal/logging"
	"github.com/mbd888/stellarbeat-mcp/internal/metrics"
	"github.com/mbd888/stellarbeat-mcp/internal/ratelimit"
	"github.com/mbd888/stellarbeat-mcp/internal/traces"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response ends up in a message.
const maxErrorBody = 256

// Endpoint is an upstream path together with its low-cardinality pattern,
// used for metrics and span names.
type Endpoint struct {
	Pattern string
	Path    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter shares a request budget with the client.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client issues GET requests against one Stellarbeat host.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger

	mu          sync.Mutex
	lastOK      bool
	lastDetail  string
	lastChecked bool
}

// New creates a client for baseURL, e.g. "https://api.stellarbeat.io".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    ratelimit.New(ratelimit.DefaultConfig()),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the host the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Limiter returns the client's request budget.
func (c *Client) Limiter() *ratelimit.Limiter { return c.limiter }

// LastOutcome reports whether the most recent request reached a healthy
// upstream. Client-side rejections and 4xx answers do not count as failures.
func (c *Client) LastOutcome() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastChecked {
		return true, "no upstream requests yet"
	}
	return c.lastOK, c.lastDetail
}

func (c *Client) recordOutcome(ok bool, detail string) {
	c.mu.Lock()
	c.lastChecked = true
	c.lastOK = ok
	c.lastDetail = detail
	c.mu.Unlock()
}

// apiErrorBody is the upstream's JSON error shape.
type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Get performs one GET request and decodes the JSON body into T.
// Every failure is returned as *APIError.
func Get[T any](ctx context.Context, c *Client, ep Endpoint, params url.Values) (T, error) {
	var zero T

	body, err := c.get(ctx, ep, params)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, &APIError{
			Kind:     KindNetworkError,
			Endpoint: ep.Path,
			Message:  "decode response: " + err.Error(),
			Err:      err,
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, ep Endpoint, params url.Values) (json.RawMessage, error) {
	ctx, span := traces.StartSpan(ctx, "stellarbeat.get", traces.Endpoint(ep.Pattern))
	defer span.End()

	logger := c.logger
	if reqID := logging.RequestID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	if !c.limiter.Allow() {
		metrics.RateLimitRejectionsTotal.Inc()
		err := &APIError{
			Kind:     KindRateLimited,
			Endpoint: ep.Path,
			Message:  fmt.Sprintf("local limit of %d requests per window reached, resets in %s", c.limiter.Limit(), c.limiter.ResetIn().Round(time.Second)),
		}
		traces.RecordError(span, err)
		logger.Warn("upstream request refused by rate limiter", "endpoint", ep.Pattern)
		return nil, err
	}

	u, err := url.Parse(c.baseURL + ep.Path)
	if err != nil {
		return nil, &APIError{Kind: KindNetworkError, Endpoint: ep.Path, Message: "invalid URL", Err: err}
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &APIError{Kind: KindNetworkError, Endpoint: ep.Path, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveUpstream(ep.Pattern, 0, elapsed.Seconds())
		apiErr := &APIError{Kind: KindNetworkError, Endpoint: ep.Path, Message: "request failed: " + err.Error(), Err: err}
		c.recordOutcome(false, apiErr.Error())
		traces.RecordError(span, apiErr)
		logger.Warn("upstream request failed", "endpoint", ep.Pattern, "error", err)
		return nil, apiErr
	}
	defer resp.Body.Close()

	metrics.ObserveUpstream(ep.Pattern, resp.StatusCode, elapsed.Seconds())
	span.SetAttributes(traces.StatusCode(resp.StatusCode))
	logger.Debug("upstream request",
		"endpoint", ep.Pattern,
		"path", ep.Path,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := &APIError{Kind: KindNetworkError, StatusCode: resp.StatusCode, Endpoint: ep.Path, Message: "read response: " + err.Error(), Err: err}
		c.recordOutcome(false, apiErr.Error())
		traces.RecordError(span, apiErr)
		return nil, apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Endpoint:   ep.Path,
			Message:    errorMessage(resp.StatusCode, respBody),
		}
		c.recordOutcome(apiErr.Kind != KindServerError, fmt.Sprintf("last request returned %d", resp.StatusCode))
		traces.RecordError(span, apiErr)
		if apiErr.Kind == KindNotFound {
			logger.Debug("upstream not found", "endpoint", ep.Pattern, "path", ep.Path)
		} else {
			logger.Warn("upstream error response", "endpoint", ep.Pattern, "status", resp.StatusCode, "kind", apiErr.Kind)
		}
		return nil, apiErr
	}

	c.recordOutcome(true, fmt.Sprintf("last request returned %d", resp.StatusCode))
	return json.RawMessage(respBody), nil
}

func errorMessage(status int, body []byte) string {
	var b apiErrorBody
	if json.Unmarshal(body, &b) == nil {
		if b.Message != "" {
			return b.Message
		}
		if b.Error != "" {
			return b.Error
		}
	}
	if len(body) == 0 {
		return http.StatusText(status)
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}
