// CLAUDE:SUMMARY Google Custom Search client — concurrent page fan-out with per-page error isolation.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// resultsPerPage is the Google API ceiling per request.
const resultsPerPage = 10

// Searcher is the seam the HTTP layer depends on, so handlers can be
// tested with a fake.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Hit, error)
}

// Config for the Google Custom Search client.
type Config struct {
	APIKey       string
	CX           string
	TotalResults int           // total hits requested across pages
	Timeout      time.Duration // per-page request timeout
	BaseURL      string
	Logger       *slog.Logger
}

func (c *Config) defaults() {
	if c.TotalResults <= 0 {
		c.TotalResults = 20
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client queries the Google Custom Search JSON API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New returns a search client. Missing credentials are allowed; Search
// then degrades to empty results instead of failing.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "search"),
	}
}

// Search fetches up to TotalResults hits, splitting the request into
// pages of 10 and fetching all pages concurrently. Individual page
// failures are logged and skipped; successes are concatenated in page
// order and truncated to the requested total.
func (c *Client) Search(ctx context.Context, query string) ([]Hit, error) {
	if query == "" {
		return nil, nil
	}
	if c.cfg.APIKey == "" || c.cfg.CX == "" {
		c.logger.Warn("missing Google API key or CX, returning no results")
		return nil, nil
	}

	numPages := (c.cfg.TotalResults + resultsPerPage - 1) / resultsPerPage
	pages := make([][]Hit, numPages)

	done := make(chan struct{})
	for i := 0; i < numPages; i++ {
		go func(page int) {
			defer func() { done <- struct{}{} }()
			hits, err := c.fetchPage(ctx, query, page*resultsPerPage+1)
			if err != nil {
				c.logger.Warn("search page failed", "page", page+1, "error", err)
				return
			}
			pages[page] = hits
		}(i)
	}
	for i := 0; i < numPages; i++ {
		<-done
	}

	var combined []Hit
	for _, page := range pages {
		combined = append(combined, page...)
	}
	if len(combined) > c.cfg.TotalResults {
		combined = combined[:c.cfg.TotalResults]
	}
	c.logger.Info("search finished", "query", query, "hits", len(combined))
	return combined, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, start int) ([]Hit, error) {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.CX)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(resultsPerPage))
	params.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	hits := make([]Hit, 0, len(payload.Items))
	for _, it := range payload.Items {
		hits = append(hits, Hit{Link: it.Link, Title: it.Title, Snippet: it.Snippet})
	}
	return hits, nil
}
