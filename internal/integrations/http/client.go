package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/klauspost/compress/gzip"
	"github.com/samber/lo"
)

const (
	DefaultTimeout = 10 * time.Second
)

var (
	defaultHeaders = map[string]string{
		"User-Agent":      "wallboard/0.1.0",
		"Accept":          "application/json",
		"Accept-Encoding": "gzip",
	}
)

type Config struct {
	Headers map[string]string
	Timeout time.Duration
}

// Client fetches JSON documents from upstream services. Every request is
// bounded by the configured timeout.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	timeout    time.Duration
}

type ClientOption func(*Client)

func WithHttpClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		headers: lo.Assign(defaultHeaders, cfg.Headers),
		timeout: timeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   timeout,
		}
	}

	return client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
}

// GetJSON issues a GET to rawURL with params added to the query string and
// decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params map[string]string, out any) error {
	reqURL, err := buildURL(rawURL, params)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{URL: reqURL.Redacted(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer func() { _ = gzipReader.Close() }()
		body = gzipReader
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}

func buildURL(rawURL string, params map[string]string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url '%s': %w", rawURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("url must use http or https scheme, got: %q", parsed.Scheme)
	}

	if len(params) > 0 {
		query := parsed.Query()
		for k, v := range params {
			query.Set(k, v)
		}
		parsed.RawQuery = query.Encode()
	}

	return parsed, nil
}
