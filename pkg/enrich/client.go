// Package enrich provides a client for the external company enrichment API:
// given a domain, it returns a display name. Resolution never blocks on this
// service; callers use it to seed the alias cache after the fact.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the enrichment lookup.
type Client interface {
	// LookupDomain returns the display name known for a domain, or "" when
	// the service has none.
	LookupDomain(ctx context.Context, domain string) (string, error)
}

type httpClient struct {
	baseURL string
	key     string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures the enrichment client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.client = hc
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates an enrichment client.
func New(key string, opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.dealflow.dev",
		key:     key,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupResponse struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

func (c *httpClient) LookupDomain(ctx context.Context, domain string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "enrich: rate limit wait")
	}

	u := fmt.Sprintf("%s/v1/companies/%s", c.baseURL, url.PathEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", eris.Wrap(err, "enrich: build request")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "enrich: lookup %s", domain)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", eris.Errorf("enrich: lookup %s: status %d: %s", domain, resp.StatusCode, body)
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", eris.Wrap(err, "enrich: decode response")
	}
	return lr.Name, nil
}
