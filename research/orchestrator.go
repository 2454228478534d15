// CLAUDE:SUMMARY Retrying stream orchestrator — forwards LLM deltas, then sanitizes, persists, and emits terminal events.
package research

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/JohanWes/deepresearch/config"
	"github.com/JohanWes/deepresearch/llm"
	"github.com/JohanWes/deepresearch/search"
	"github.com/JohanWes/deepresearch/store"
)

// EventSink receives the stream events produced by a run. The HTTP layer
// implements it with an SSE writer; tests implement it with a recorder.
type EventSink interface {
	Send(event string, data any) error
}

// ResultSaver persists completed results.
type ResultSaver interface {
	Save(res *store.Result) error
}

// Job is one synthesis run, already past search and extraction.
type Job struct {
	ID      string // minted result UUID
	Query   string
	Text    string // combined extracted text
	Sources []search.Hit
	Model   config.Model
}

// Config for the orchestrator.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator drives the LLM stream with bounded retry and handles the
// terminal bookkeeping: cost, sanitization, persistence, final events.
type Orchestrator struct {
	cfg      Config
	streamer llm.Streamer
	results  ResultSaver
	policy   *bluemonday.Policy
	logger   *slog.Logger
}

func New(streamer llm.Streamer, results ResultSaver, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		cfg:      cfg,
		streamer: streamer,
		results:  results,
		policy:   answerPolicy(),
		logger:   cfg.Logger.With("component", "research"),
	}
}

// Run executes the job, emitting message events for each delta and a
// resultLink + done pair on success, or a single error event after the
// attempts are exhausted. Deltas forwarded by failed attempts are not
// retracted; the client replaces its buffer from the persisted result.
func (o *Orchestrator) Run(ctx context.Context, sink EventSink, job Job) {
	logger := o.logger.With("result_id", job.ID, "model", job.Model.ID)

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		answer, usage, err := o.attempt(ctx, sink, job)
		if err == nil {
			o.finish(sink, job, answer, usage, logger)
			return
		}
		lastErr = err
		if ctx.Err() != nil {
			logger.Info("run cancelled", "attempt", attempt)
			return
		}
		logger.Warn("stream attempt failed", "attempt", attempt, "error", err)
		if attempt < o.cfg.MaxAttempts {
			if err := sleepCtx(ctx, o.cfg.RetryDelay); err != nil {
				return
			}
		}
	}

	msg := fmt.Sprintf("Failed after %d attempts. Last error: %s", o.cfg.MaxAttempts, lastErr)
	if err := sink.Send("error", errorPayload{Message: msg}); err != nil {
		logger.Warn("send error event", "error", err)
	}
}

// attempt opens one stream and forwards its deltas. Any error discards
// the accumulated answer; the caller decides whether to retry.
func (o *Orchestrator) attempt(ctx context.Context, sink EventSink, job Job) (string, *llm.Usage, error) {
	stream, err := o.streamer.Stream(ctx, llm.Request{
		Query:   job.Query,
		Text:    job.Text,
		Sources: job.Sources,
		Model:   job.Model.ID,
	})
	if err != nil {
		return "", nil, err
	}
	defer stream.Close()

	var (
		answer string
		usage  *llm.Usage
	)
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return answer, usage, nil
		}
		if err != nil {
			return "", nil, err
		}
		if chunk.Delta != "" {
			answer += chunk.Delta
			if err := sink.Send("message", chunk.Delta); err != nil {
				return "", nil, fmt.Errorf("research: forward delta: %w", err)
			}
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

type resultLinkPayload struct {
	Link  string     `json:"link"`
	Usage *llm.Usage `json:"usage,omitempty"`
	Cost  *float64   `json:"cost,omitempty"`
}

// finish sanitizes and persists the answer, then emits resultLink and done.
func (o *Orchestrator) finish(sink EventSink, job Job, answer string, usage *llm.Usage, logger *slog.Logger) {
	cost := Cost(usage, job.Model)
	if cost == nil {
		logger.Warn("could not estimate cost, missing usage or pricing")
	}

	res := &store.Result{
		ID:         job.ID,
		Query:      job.Query,
		AnswerHTML: o.policy.Sanitize(answer),
		Sources:    job.Sources,
		Timestamp:  time.Now().UTC(),
		Usage:      usage,
		Cost:       cost,
		ModelUsed: &store.ModelInfo{
			ID:       job.Model.ID,
			Name:     job.Model.Name,
			Provider: job.Model.Provider,
		},
	}
	if err := o.results.Save(res); err != nil {
		logger.Error("save result", "error", err)
		sink.Send("error", errorPayload{Message: "Failed to save result for sharing."})
		return
	}
	logger.Info("result persisted", "chars", len(res.AnswerHTML))

	link := resultLinkPayload{Link: "/research/" + job.ID, Usage: usage, Cost: cost}
	if err := sink.Send("resultLink", link); err != nil {
		logger.Warn("send resultLink", "error", err)
		return
	}
	sink.Send("done", "[DONE]")
}

// answerPolicy keeps the citation markup the prompt asks for (superscript
// anchors, the id'd source list, target=_blank) while stripping anything
// executable before the answer is persisted.
func answerPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").OnElements("li", "ol", "p", "div")
	p.AllowAttrs("target").OnElements("a")
	p.AllowRelativeURLs(true)
	p.RequireNoFollowOnLinks(false)
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
