// Package bookoutlet fetches and parses BookOutlet search result pages.
package bookoutlet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookmatch/internal/match"
)

// DefaultBaseURL is the production storefront.
const DefaultBaseURL = "https://bookoutlet.ca"

const defaultUserAgent = "bookmatch/1.0 (+https://github.com/bookmatch/bookmatch)"

// Searcher defines the store search operation the match command uses.
// The search cache wraps this same interface.
type Searcher interface {
	Search(ctx context.Context, query string) ([]match.Candidate, error)
}

// Client fetches search result pages from the storefront.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent overrides the identifying User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = agent
		}
	}
}

// New creates a storefront client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("bookoutlet base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search runs a storefront browse query and returns the parsed result
// grid. Non-200 responses and transport failures are errors; the caller
// decides whether to degrade them to an empty candidate list.
func (c *Client) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL + "/browse")
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	params := url.Values{}
	params.Set("qf", "All")
	params.Set("q", query)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	candidates, err := ParseResults(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse store response: %w", err)
	}
	return candidates, nil
}
