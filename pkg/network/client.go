// Lodestar: a multi-provider manga search engine with adaptive failover.
// Copyright (C) 2025 Lodestar contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"Lodestar/pkg/errors"
	"Lodestar/pkg/logger"

	"golang.org/x/net/proxy"
)

const maxBackoff = 30 * time.Second

// ClientConfig configures the shared HTTP client.
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	Retries   int
	// ProxyURL routes providers that ask for the proxied transport through a
	// SOCKS5 endpoint (socks5://host:port). Empty disables the proxied client.
	ProxyURL string
}

// RequestOptions customizes one request. Zero values fall back to the
// client defaults.
type RequestOptions struct {
	Method    string
	Headers   http.Header
	UserAgent string
	Body      []byte
	// RateKey picks the rate-limiter bucket; the request host is used when empty.
	RateKey  string
	UseProxy bool
	Retries  int
}

// Client is the retrying HTTP client every provider goes through. Requests
// are spaced by the rate limiter, transient statuses are retried with
// exponential backoff (Retry-After honored when larger), and failures come
// back classified for the failover bookkeeping.
type Client struct {
	base    *http.Client
	proxied *http.Client
	Limiter *RateLimiterService
	Logger  *logger.Service

	DefaultRetries int
	UserAgent      string
	DefaultHeaders http.Header
}

// NewClient builds the client. A configured proxy that fails to parse is a
// hard error so a misconfigured environment surfaces at startup.
func NewClient(cfg ClientConfig, limiter *RateLimiterService, log *logger.Service) (*Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		base: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		Limiter:        limiter,
		Logger:         log,
		DefaultRetries: cfg.Retries,
		UserAgent:      cfg.UserAgent,
		DefaultHeaders: make(http.Header),
	}
	c.DefaultHeaders.Set("Accept", "application/json, text/plain, */*")
	c.DefaultHeaders.Set("Accept-Language", "en-US,en;q=0.5")

	if cfg.ProxyURL != "" {
		proxied, err := proxiedClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
		c.proxied = proxied
	}

	return c, nil
}

func proxiedClient(cfg ClientConfig) (*http.Client, error) {
	u, err := url.Parse(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:    20,
		IdleConnTimeout: 90 * time.Second,
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{Timeout: cfg.Timeout, Transport: transport}, nil
}

// HasProxy reports whether a proxied transport is available.
func (c *Client) HasProxy() bool { return c.proxied != nil }

// FetchWithRetries performs the request, retrying transient failures with
// exponential backoff. Non-retryable statuses (404, 403, other 4xx) fail
// immediately. The returned response always has status < 400.
func (c *Client) FetchWithRetries(ctx context.Context, rawURL string, opts *RequestOptions) (*http.Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	client := c.base
	if opts.UseProxy {
		if c.proxied == nil {
			return nil, fmt.Errorf("%w: proxy transport requested but not configured", errors.ErrInvalidInput)
		}
		client = c.proxied
	}

	rateKey := opts.RateKey
	if rateKey == "" {
		if u, err := url.Parse(rawURL); err == nil {
			rateKey = u.Host
		}
	}

	retries := c.DefaultRetries
	if opts.Retries > 0 {
		retries = opts.Retries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := c.Limiter.Wait(ctx, rateKey); err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, rawURL, opts)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = classifyTransport(err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
		} else if resp.StatusCode < 400 {
			return resp, nil
		} else {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			mapped := errors.FromStatus(resp.StatusCode, retryAfter)
			_ = resp.Body.Close()

			if !errors.Retryable(mapped) {
				return nil, mapped
			}
			lastErr = mapped
		}

		if attempt < retries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if after, ok := errors.RetryAfter(lastErr); ok && after > backoff {
				backoff = after
			}
			if backoff > maxBackoff {
				backoff = maxBackoff
			}

			c.Logger.Debug("Retrying %s in %s (attempt %d/%d): %v", rawURL, backoff, attempt+1, retries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", retries+1, lastErr)
}

func (c *Client) newRequest(ctx context.Context, rawURL string, opts *RequestOptions) (*http.Request, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body *bytes.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.DefaultHeaders {
		req.Header[k] = v
	}
	for k, v := range opts.Headers {
		req.Header[k] = v
	}

	if _, ok := req.Header["User-Agent"]; !ok {
		ua := opts.UserAgent
		if ua == "" {
			ua = c.UserAgent
		}
		req.Header.Set("User-Agent", ua)
	}

	return req, nil
}

// FetchJSON fetches and decodes a JSON response into result.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, result interface{}, opts *RequestOptions) error {
	resp, err := c.FetchWithRetries(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}

// PostJSON marshals payload, POSTs it, and decodes the JSON response.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload, result interface{}, opts *RequestOptions) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	if opts == nil {
		opts = &RequestOptions{}
	}
	opts.Method = http.MethodPost
	opts.Body = body
	if opts.Headers == nil {
		opts.Headers = make(http.Header)
	}
	opts.Headers.Set("Content-Type", "application/json")

	return c.FetchJSON(ctx, rawURL, result, opts)
}

func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", errors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", errors.ErrNetworkIssue, err)
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
