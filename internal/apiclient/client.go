// Package apiclient is the single gateway to the remote finance API. It
// attaches the current bearer token to every request and turns every failure
// into an *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"spesecli/internal/log"
)

const (
	DefaultTimeout = 15 * time.Second

	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// TokenSource yields the bearer token for the next request. An empty string
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond enables a client-side limiter when > 0.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// HTTPClient replaces the pooled default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

type Client struct {
	base      string
	http      *http.Client
	tokens    TokenSource
	limiter   *rate.Limiter
	userAgent string
	logger    *log.Logger
}

func New(cfg Config, tokens TokenSource, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", cfg.BaseURL)
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = newPooledHTTPClient(timeout)
	}

	c := &Client{
		base:      strings.TrimRight(u.String(), "/"),
		http:      hc,
		tokens:    tokens,
		userAgent: cfg.UserAgent,
		logger:    logger.WithComponent(log.ComponentAPI),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

func newPooledHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request. body is JSON-encoded when non-nil and a successful
// response is decoded into out when out is non-nil. Failed calls are never
// retried. Every error returned is an *Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return invalidRequest(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return invalidRequest(fmt.Errorf("build request: %w", err))
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	fields := log.NewFields().
		WithHTTPRequest(method, path, query.Encode()).
		WithRequestID(requestID)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			apiErr := unreachable(err)
			c.logger.WarnContext(ctx, "Request not sent, rate limiter wait aborted", fields.WithError(err).ToSlice()...)
			return apiErr
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "No response from server",
			fields.WithHTTPResponse(StatusNoResponse, time.Since(start)).WithError(err).ToSlice()...)
		return unreachable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.WarnContext(ctx, "Response body interrupted",
			fields.WithHTTPResponse(resp.StatusCode, time.Since(start)).WithError(err).ToSlice()...)
		return unreachable(err)
	}
	fields = fields.WithHTTPResponse(resp.StatusCode, time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		apiErr := rejected(resp.StatusCode, eb)
		fields[log.FieldErrorCode] = apiErr.Code
		if apiErr.Kind == KindDataStoreDown {
			c.logger.ErrorContext(ctx, "Server reports database connection error", fields.ToSlice()...)
		} else {
			c.logger.WarnContext(ctx, "Request rejected", fields.ToSlice()...)
		}
		return apiErr
	}

	c.logger.DebugContext(ctx, "Request completed", fields.ToSlice()...)
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Kind:    KindRemoteRejected,
			Status:  resp.StatusCode,
			Message: "unexpected response from server",
			Code:    CodeDecode,
			Err:     err,
		}
	}
	return nil
}

// Health is the last known state of the API and its database.
type Health struct {
	ServiceUp   bool
	DataStoreUp bool
}

type statusBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// CheckHealth queries GET /status. It never fails: any problem is reported as
// both flags false.
func (c *Client) CheckHealth(ctx context.Context) Health {
	var body statusBody
	if err := c.Get(ctx, "/status", nil, &body); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind != KindUnreachable {
			c.logger.DebugContext(ctx, "Health check rejected", log.FieldStatusCode, apiErr.Status)
		}
		return Health{}
	}
	return Health{ServiceUp: true, DataStoreUp: body.Database == "connected"}
}
