// Package httpclient provides an instrumented HTTP client for provider APIs.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Config holds client settings for one provider API.
type Config struct {
	// ProviderName labels metrics and errors.
	ProviderName string

	// BaseURL is prepended to every request path.
	BaseURL string

	// Headers are attached to every request (e.g. an API-key header).
	Headers map[string]string

	// Timeout bounds each request end to end. Zero uses the default.
	Timeout time.Duration
}

// Client is a JSON-speaking HTTP client with connection pooling and OTEL
// request counting.
type Client struct {
	http           *http.Client
	baseURL        string
	headers        map[string]string
	providerName   string
	requestCounter metric.Int64Counter
}

// New creates a Client for the given provider API.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		MaxConnsPerHost: defaultMaxConnsPerHost,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	meter := otel.Meter("httpclient")
	counter, err := meter.Int64Counter(metricRequestCounter,
		metric.WithDescription("Outbound HTTP requests by provider and status"))
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request counter: %w", err)
	}

	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   timeout,
		},
		baseURL:        cfg.BaseURL,
		headers:        cfg.Headers,
		providerName:   cfg.ProviderName,
		requestCounter: counter,
	}, nil
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: %s: create request: %w", c.providerName, err)
	}
	return c.do(req, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpclient: %s: marshal body: %w", c.providerName, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("httpclient: %s: create request: %w", c.providerName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.requestCounter.Add(req.Context(), 1,
		metric.WithAttributes(
			attribute.String("provider", c.providerName),
			attribute.Int("status", status),
		))
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", c.providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Provider: c.providerName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpclient: %s: decode response: %w", c.providerName, err)
	}
	return nil
}

// StatusError reports a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: %s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}
