// Copyright (c) Microsoft. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// DefaultSearchURL is the Context7 search endpoint.
	DefaultSearchURL = "https://context7.com/api/v1/search"
	// DefaultQuery is sent when the caller supplies no query.
	DefaultQuery = "test"

	missingKeyMessage = "Missing API key for Context7 MCP server."
)

// SearchArgs are the arguments of the Context7 search tool.
type SearchArgs struct {
	Query string `json:"query,omitempty" jsonschema:"Search terms for library documentation. Defaults to test."`
}

// SearchClient queries the Context7 search API.
type SearchClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// SearchOption configures a [SearchClient].
type SearchOption func(*SearchClient)

// WithSearchURL overrides the search endpoint.
func WithSearchURL(u string) SearchOption {
	return func(c *SearchClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithSearchHTTPClient provides a custom http.Client.
func WithSearchHTTPClient(hc *http.Client) SearchOption {
	return func(c *SearchClient) { c.httpClient = hc }
}

// WithSearchLogger sets the logger; slog.Default is used otherwise.
func WithSearchLogger(l *slog.Logger) SearchOption {
	return func(c *SearchClient) { c.logger = l }
}

// NewSearchClient creates a client authenticating with apiKey. An empty key
// is allowed; every search then fails without touching the network.
func NewSearchClient(apiKey string, opts ...SearchOption) *SearchClient {
	c := &SearchClient{
		apiKey:     apiKey,
		baseURL:    DefaultSearchURL,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search runs one GET against the search endpoint. Every fault is returned
// as a [Failure]; there is no retry and no timeout beyond ctx.
func (c *SearchClient) Search(ctx context.Context, query string) Result {
	if c.apiKey == "" {
		c.logger.ErrorContext(ctx, "missing Context7 API key")
		return Failure{Message: missingKeyMessage}
	}
	if query == "" {
		query = DefaultQuery
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Failure{Message: err.Error()}
	}
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Failure{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "context7 request failed", "error", err)
		return Failure{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "context7 query failed", "status", resp.StatusCode)
		return Failure{Message: fmt.Sprintf("Failed with status code: %d", resp.StatusCode)}
	}

	var results any
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.logger.ErrorContext(ctx, "context7 response not JSON", "error", err)
		return Failure{Message: err.Error()}
	}
	c.logger.InfoContext(ctx, "context7 query succeeded")
	return Found{Results: results}
}

// Probe runs the default query once, as a start-up connectivity check.
func (c *SearchClient) Probe(ctx context.Context) Result {
	res := c.Search(ctx, DefaultQuery)
	c.logger.InfoContext(ctx, "context7 probe", "status", res.Status())
	return res
}

// SearchFunc wraps c as a registry entry.
func SearchFunc(c *SearchClient) *Func[SearchArgs] {
	return NewFunc(NameSearch,
		"Searches the Context7 documentation service for up-to-date library documentation and code examples.",
		func(ctx context.Context, args SearchArgs) Result { return c.Search(ctx, args.Query) },
	)
}
