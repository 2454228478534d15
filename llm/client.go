// CLAUDE:SUMMARY OpenRouter streaming client over the OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JohanWes/deepresearch/search"
)

var (
	ErrNoAPIKey  = errors.New("llm: OpenRouter API key not configured")
	ErrNoModel   = errors.New("llm: model name not configured")
	ErrNoContent = errors.New("llm: no content available to answer the query")
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Usage mirrors the provider token accounting, with its native JSON keys.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Chunk is one unit of a token stream: a content delta and, on the final
// chunk, the usage totals.
type Chunk struct {
	Delta string
	Usage *Usage
}

// TokenStream yields chunks until io.EOF. Implementations surface
// transport and in-band provider errors from Recv.
type TokenStream interface {
	Recv() (Chunk, error)
	Close() error
}

// Request describes one synthesis run.
type Request struct {
	Query   string
	Text    string
	Sources []search.Hit
	Model   string
}

// Streamer is the seam the orchestrator depends on.
type Streamer interface {
	Stream(ctx context.Context, req Request) (TokenStream, error)
}

// Config for the OpenRouter client.
type Config struct {
	APIKey  string
	BaseURL string
	Referer string // HTTP-Referer header recommended by OpenRouter
	AppName string // X-Title header
	Logger  *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = openRouterBaseURL
	}
	if c.AppName == "" {
		c.AppName = "Deep Research"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client streams chat completions from OpenRouter.
type Client struct {
	cfg    Config
	api    *openai.Client
	logger *slog.Logger
}

func NewClient(cfg Config) *Client {
	cfg.defaults()
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{
		Transport: &attributionTransport{
			base:    http.DefaultTransport,
			referer: cfg.Referer,
			title:   cfg.AppName,
		},
	}
	return &Client{
		cfg:    cfg,
		api:    openai.NewClientWithConfig(apiCfg),
		logger: cfg.Logger.With("component", "llm"),
	}
}

// Stream opens a streaming completion for the request. Configuration and
// input problems fail fast; provider errors surface either here (open) or
// from the returned stream's Recv.
func (c *Client) Stream(ctx context.Context, req Request) (TokenStream, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if req.Model == "" {
		return nil, ErrNoModel
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrNoContent
	}

	prompt := BuildPrompt(req.Query, req.Text, req.Sources)
	c.logger.Info("opening completion stream", "model", req.Model, "prompt_chars", len(prompt))

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: open stream: %w", err)
	}
	return &completionStream{inner: stream}, nil
}

// completionStream adapts the go-openai stream to TokenStream.
type completionStream struct {
	inner *openai.ChatCompletionStream
}

func (s *completionStream) Recv() (Chunk, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Chunk{}, io.EOF
		}
		return Chunk{}, fmt.Errorf("llm: recv: %w", err)
	}
	var chunk Chunk
	if len(resp.Choices) > 0 {
		chunk.Delta = resp.Choices[0].Delta.Content
	}
	if resp.Usage != nil {
		chunk.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return chunk, nil
}

func (s *completionStream) Close() error {
	return s.inner.Close()
}

// attributionTransport adds the OpenRouter attribution headers to every
// outgoing request.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	if t.referer != "" {
		clone.Header.Set("HTTP-Referer", t.referer)
	}
	clone.Header.Set("X-Title", t.title)
	return t.base.RoundTrip(clone)
}
