package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pfrederiksen/pagedeco/internal/logger"
)

const (
	UserAgent = "pagedeco/1.0 (github.com/pfrederiksen/pagedeco)"
	Timeout   = 30 * time.Second
)

// HTTP fetches resources from a live site.
type HTTP struct {
	client    *http.Client
	base      *url.URL
	userAgent string
}

// Option configures an HTTP origin.
type Option func(*HTTP)

// WithClient replaces the default HTTP client.
func WithClient(client *http.Client) Option {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(h *HTTP) {
		if timeout > 0 {
			h.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(h *HTTP) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// NewHTTP creates an origin rooted at baseURL, e.g. "https://www.example.com".
func NewHTTP(baseURL string, opts ...Option) (*HTTP, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parsing origin URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("origin URL must be http or https: %q", baseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("origin URL has no host: %q", baseURL)
	}

	h := &HTTP{
		client: &http.Client{
			Timeout: Timeout,
		},
		base:      base,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Base returns the origin's base URL.
func (h *HTTP) Base() *url.URL {
	u := *h.base
	return &u
}

// Resolve resolves a site-relative or absolute reference against the base URL.
func (h *HTTP) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}
	return h.base.ResolveReference(ref), nil
}

// Fetch issues a GET for path and returns the body of a 2xx response.
func (h *HTTP) Fetch(ctx context.Context, path string) ([]byte, error) {
	target, err := h.Resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	start := time.Now()
	resp, err := h.client.Do(req)
	logger.RecordTiming("origin.fetch", time.Since(start))
	if err != nil {
		logger.IncrCounter("origin.fetch.error")
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.IncrCounter("origin.fetch.not_found")
		return nil, fmt.Errorf("fetching %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.IncrCounter("origin.fetch.error")
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.IncrCounter("origin.fetch.error")
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	logger.IncrCounter("origin.fetch.ok")
	logger.Debug("fetched resource", logger.Fields{
		"url":    target.String(),
		"status": resp.StatusCode,
		"bytes":  len(body),
	})
	return body, nil
}
