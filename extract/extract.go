// CLAUDE:SUMMARY Bounded HTTP fetch plus readable-text reduction for candidate source pages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	ErrBadStatus = errors.New("extract: non-2xx response")
	ErrNotHTML   = errors.New("extract: content type is not HTML")
	ErrNoContent = errors.New("extract: no text content found")
)

// browserUA keeps plain-HTTP fetches from being served bot pages.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config for the extractor.
type Config struct {
	Timeout      time.Duration // per-URL fetch timeout
	MaxBodyBytes int64         // response body cap
	UserAgent    string
	Logger       *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 5 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = browserUA
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor fetches pages and reduces them to readable text.
type Extractor struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "extract"),
	}
}

// Extract fetches url and returns its readable text. Any failure — network,
// status, content type, parse, or an empty page — collapses to ("", false)
// so one bad source never aborts a batch.
func (e *Extractor) Extract(ctx context.Context, url string) (string, bool) {
	text, err := e.extract(ctx, url)
	if err != nil {
		e.logger.Warn("extraction failed", "url", url, "error", err)
		return "", false
	}
	e.logger.Info("extracted content", "url", url, "chars", len(text))
	return text, true
}

func (e *Extractor) extract(ctx context.Context, url string) (string, error) {
	body, err := e.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	text, err := FromHTML(strings.NewReader(body))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("extract: build request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "text/html") {
		return "", fmt.Errorf("%w: %q", ErrNotHTML, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("extract: read body: %w", err)
	}
	return string(body), nil
}
