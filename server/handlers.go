// CLAUDE:SUMMARY Pipeline controller handlers — search/score, concurrent extraction, SSE delegation, result page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JohanWes/deepresearch/research"
	"github.com/JohanWes/deepresearch/search"
	"github.com/JohanWes/deepresearch/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// handleSearch runs the search + scoring phase and returns the top
// candidates for the client to confirm.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		// Rejected input must not consume daily budget.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Search query cannot be empty."})
		return
	}
	s.chargeUsage(r)

	hits, err := s.deps.Searcher.Search(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("search failed", "query", req.Query, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to perform initial search and scoring."})
		return
	}

	scored := search.ScoreHits(hits)
	if len(scored) > s.cfg.NumSources {
		scored = scored[:s.cfg.NumSources]
	}
	urls := make([]string, 0, len(scored))
	for _, h := range scored {
		if h.Link != "" {
			urls = append(urls, h.Link)
		}
	}
	if scored == nil {
		scored = []search.Hit{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":         req.Query,
		"urlsToProcess": urls,
		"topItems":      scored,
	})
}

// handleModels exposes the model catalog and the effective default.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":       s.cfg.Models,
		"defaultModel": s.cfg.DefaultModel,
	})
}

type processRequest struct {
	Query         string       `json:"query"`
	URLsToProcess []string     `json:"urlsToProcess"`
	TopItems      []search.Hit `json:"topItems"`
	SelectedModel string       `json:"selectedModel"`
}

func (req *processRequest) valid() bool {
	return req.Query != "" && len(req.URLsToProcess) > 0 && req.TopItems != nil
}

// handleProcess is the streaming half of a run: concurrent extraction,
// then delegation to the orchestrator. The response is an SSE stream even
// for invalid input, so the client consumes one protocol throughout.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	ew, err := NewEventWriter(w)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var req processRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		msg := "Invalid request format. Please check your input."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "Request too large. Please try a shorter query or fewer sources."
		}
		ew.Send("error", map[string]string{"message": msg})
		ew.Send("done", "[DONE]")
		return
	}
	if !req.valid() {
		ew.Send("error", map[string]string{"message": "Missing or invalid query, URLs, or source items to process."})
		return
	}

	ctx := r.Context()
	texts, items := s.extractAll(ctx, req.URLsToProcess, req.TopItems)
	if len(texts) == 0 {
		ew.Send("error", map[string]string{"message": "Failed to extract content from any sources."})
		return
	}

	ew.Send("info", map[string]any{
		"type":    "sources_processed",
		"count":   len(items),
		"sources": items,
	})

	model, ok := s.cfg.ModelByID(req.SelectedModel)
	if req.SelectedModel == "" {
		model = s.cfg.DefaultModelConfig()
	} else if !ok {
		ew.Send("info", map[string]string{
			"message": fmt.Sprintf("Invalid model selected: %s. Using default model.", req.SelectedModel),
		})
		model = s.cfg.DefaultModelConfig()
	}

	job := research.Job{
		ID:      uuid.NewString(),
		Query:   req.Query,
		Text:    strings.Join(texts, "\n\n---\n\n"),
		Sources: items,
		Model:   model,
	}
	s.logger.Info("starting research run", "result_id", job.ID, "query", req.Query, "sources", len(items))
	s.deps.Orchestrator.Run(ctx, ew, job)
}

// extractAll fetches every URL concurrently and keeps the survivors in
// their original order, paired with their source items. Per-URL failures
// are dropped, never fatal.
func (s *Server) extractAll(ctx context.Context, urls []string, items []search.Hit) ([]string, []search.Hit) {
	texts := make([]string, len(urls))
	oks := make([]bool, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			texts[i], oks[i] = s.deps.Extractor.Extract(ctx, url)
		}(i, url)
	}
	wg.Wait()

	var (
		survivors []string
		sources   []search.Hit
	)
	for i, url := range urls {
		if !oks[i] {
			continue
		}
		survivors = append(survivors, texts[i])
		if item, ok := itemByLink(items, url); ok {
			sources = append(sources, item)
		} else {
			s.logger.Warn("no source item for extracted url", "url", url)
		}
	}
	return survivors, sources
}

func itemByLink(items []search.Hit, link string) (search.Hit, bool) {
	for _, it := range items {
		if it.Link == link {
			return it, true
		}
	}
	return search.Hit{}, false
}

// resultView is the template payload for the shareable result page.
type resultView struct {
	Query      string
	Timestamp  string
	AnswerHTML template.HTML
	Sources    []search.Hit
	ModelUsed  *store.ModelInfo
	Usage      *resultUsage
}

type resultUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             string
}

// handleResult renders a persisted result. The answer block is the
// stored HTML verbatim; it was sanitized before persisting.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "Invalid ID format.", http.StatusBadRequest)
		return
	}

	res, err := s.deps.Results.Load(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Research result not found.", http.StatusNotFound)
			return
		}
		s.logger.Error("load result", "id", id, "error", err)
		http.Error(w, "Error retrieving research result.", http.StatusInternalServerError)
		return
	}

	view := resultView{
		Query:      res.Query,
		Timestamp:  res.Timestamp.Format("2006-01-02 15:04:05 UTC"),
		AnswerHTML: template.HTML(res.AnswerHTML),
		Sources:    res.Sources,
		ModelUsed:  res.ModelUsed,
	}
	if res.Usage != nil {
		view.Usage = &resultUsage{
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
		}
		if res.Cost != nil {
			view.Usage.Cost = fmt.Sprintf("$%.6f", *res.Cost)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.resultTmpl.Execute(w, view); err != nil {
		s.logger.Error("render result page", "id", id, "error", err)
	}
}
