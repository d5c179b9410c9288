// Package rest binds the four backend service contracts to a
// JSON-over-HTTP API.
//
// Usage:
//
//	c := rest.NewClient("https://api.kazibuddy.example",
//	    rest.WithTokenSource(sess.AccessToken),
//	)
//	svcs := rest.NewBundle(c)
//
// Every call attaches the session's bearer token, honors the request
// context, and converts non-2xx responses into *service.APIError so the
// pipeline can normalize them for display. Outbound request volume is
// bounded by a client-side rate limiter.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Tafakari-Ltd/kazibuddy-sync/backoff"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/service"
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// return sends the request unauthenticated.
type TokenSource func(ctx context.Context) string

// Client is the shared HTTP transport for the REST service bindings.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	token    TokenSource
	logger   *slog.Logger
	attempts int
	retry    backoff.Strategy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the bearer token supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithRateLimit bounds outbound requests to r per second with the given
// burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetry sets the attempt count and delay strategy for transient GET
// failures. Attempts of 1 disables retries.
func WithRetry(attempts int, s backoff.Strategy) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retry = s
	}
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(20), 40),
		logger:   slog.Default(),
		attempts: 3,
		retry:    backoff.DefaultStrategy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBundle wires all four service contracts over one Client.
func NewBundle(c *Client) service.Bundle {
	return service.Bundle{
		Jobs:         &Jobs{c: c},
		Applications: &Applications{c: c},
		Profiles:     &Profiles{c: c},
		Admin:        &Admin{c: c},
	}
}

// listEnvelope is the wire shape of paginated list responses.
type listEnvelope[T any] struct {
	Items      []T         `json:"items"`
	Pagination entity.Page `json:"pagination"`
}

// errorBody is the wire shape of failure responses.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// do executes one JSON request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.roundTrip(ctx, method, path, query, payload, contentType, out)
}

// doMultipart executes one multipart/form-data request.
func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			return fmt.Errorf("rest: write multipart field %s: %w", key, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("rest: close multipart writer: %w", err)
	}
	return c.roundTrip(ctx, method, path, nil, &buf, w.FormDataContentType(), out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	// Only bodyless GETs are replayable; everything else gets one shot.
	if method == http.MethodGet && body == nil && c.attempts > 1 {
		return backoff.Retry(ctx, c.attempts, c.retry, retryable, func(ctx context.Context) error {
			return c.send(ctx, method, path, query, nil, contentType, out)
		})
	}
	return c.send(ctx, method, path, query, body, contentType, out)
}

// retryable reports whether an error is worth another GET: network
// failures and upstream overload statuses, never client errors.
func retryable(err error) bool {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("rest: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("rest call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest: decode response: %w", err)
	}
	return nil
}

// decodeAPIError converts a non-2xx response into *service.APIError.
// Unparseable bodies keep the HTTP status with an empty message so the
// pipeline falls back to its generic failure text.
func decodeAPIError(resp *http.Response) error {
	apiErr := &service.APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	apiErr.Message = body.Message
	if len(body.Errors) > 0 {
		apiErr.Fields = body.Errors
	}
	return apiErr
}
