// Package gateway is the single outbound channel to the storefront backend. It
// attaches the bearer credential and tenant context to every request and turns
// every failure into an *apierr.Error.
package gateway

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

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/rs/zerolog"
)

const (
	HeaderTenantSlug = "X-Tenant-Slug"
	HeaderRequestID  = "X-Request-ID"

	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config locates the backend.
type Config struct {
	BaseURL string        // e.g. http://localhost:8080/api/v1
	Timeout time.Duration // Per request; a timeout is reported as apierr.ErrNetwork
}

// CredentialSource supplies the bearer token. An empty token means the
// request is sent anonymously.
type CredentialSource interface {
	Credential() string
}

// Client calls the backend API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *Metrics

	mu          sync.RWMutex
	credentials CredentialSource
	tenantSlug  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCredentials sets the bearer token source.
func WithCredentials(src CredentialSource) ClientOption {
	return func(c *Client) {
		c.credentials = src
	}
}

// WithTransport sets the underlying round tripper, e.g. an httptest server's.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTenantSlug sets the tenant sent on requests whose context carries none.
func WithTenantSlug(slug string) ClientOption {
	return func(c *Client) {
		c.tenantSlug = slug
	}
}

func NewClient(cfg Config, options ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("[NewClient] base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[NewClient] base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("[NewClient] base url scheme %q not supported", base.Scheme)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.httpClient.Transport = &bearerTransport{source: c.credentialSource, base: c.httpClient.Transport}
	return c, nil
}

// SetCredentials replaces the bearer token source. The session store that
// supplies tokens is itself built on the client, so it is attached afterwards.
func (c *Client) SetCredentials(src CredentialSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials = src
}

// SetTenantSlug replaces the default tenant.
func (c *Client) SetTenantSlug(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantSlug = slug
}

func (c *Client) credentialSource() CredentialSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credentials
}

func (c *Client) defaultTenant() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenantSlug
}

type tenantKey struct{}

// ContextWithTenant scopes the requests made with ctx to the tenant slug.
func ContextWithTenant(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, tenantKey{}, slug)
}

// TenantFromContext returns the tenant slug carried by ctx.
func TenantFromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(tenantKey{}).(string)
	return slug, ok && slug != ""
}

// call sends one request. route is the path template used as the metrics
// label; path is the expanded path.
func (c *Client) call(ctx context.Context, method, route, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apierr.Wrap(apierr.ErrValidation, err, "could not encode request")
		}
		body = bytes.NewReader(data)
	}

	// path arrives with its segments escaped; keep that encoding on the wire.
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return apierr.Wrap(apierr.ErrValidation, err, "invalid request path")
	}
	target := *c.baseURL
	target.Path = c.baseURL.Path + unescaped
	target.RawPath = c.baseURL.EscapedPath() + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return apierr.Wrap(apierr.ErrNetwork, err, "could not build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.New().String()
	req.Header.Set(HeaderRequestID, requestID)
	if slug, ok := TenantFromContext(ctx); ok {
		req.Header.Set(HeaderTenantSlug, slug)
	} else if slug := c.defaultTenant(); slug != "" {
		req.Header.Set(HeaderTenantSlug, slug)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, route, statusNetworkError, time.Since(start))
		c.logger.Debug().Err(err).Str("method", method).Str("route", route).Str("request_id", requestID).Msg("request failed")
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.observe(method, route, resp.StatusCode, time.Since(start))
	if err != nil {
		return networkError(err)
	}
	c.logger.Debug().Str("method", method).Str("route", route).Int("status", resp.StatusCode).Str("request_id", requestID).Msg("request complete")

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apierr.Error{Kind: apierr.ErrNetwork, Message: "unexpected response from server", Status: resp.StatusCode, Err: err}
	}
	return nil
}
