// CLAUDE:SUMMARY Persisted research results — one immutable JSON file per UUID under the results directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JohanWes/deepresearch/llm"
	"github.com/JohanWes/deepresearch/search"
)

var ErrNotFound = errors.New("store: result not found")

// ModelInfo records which catalog model produced a result.
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Result is one completed research run. It is written once and never
// modified, so the shareable page always renders the same bytes.
type Result struct {
	ID         string       `json:"id"`
	Query      string       `json:"query"`
	AnswerHTML string       `json:"answerHtml"`
	Sources    []search.Hit `json:"sources"`
	Timestamp  time.Time    `json:"timestamp"`
	Usage      *llm.Usage   `json:"usage,omitempty"`
	Cost       *float64     `json:"cost,omitempty"`
	ModelUsed  *ModelInfo   `json:"modelUsed,omitempty"`
}

// Results stores result documents as <id>.json files.
type Results struct {
	dir string
}

// NewResults creates the results directory if needed.
func NewResults(dir string) (*Results, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create results dir: %w", err)
	}
	return &Results{dir: dir}, nil
}

func (r *Results) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// Save writes the result document.
func (r *Results) Save(res *Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal result: %w", err)
	}
	if err := os.WriteFile(r.path(res.ID), data, 0o644); err != nil {
		return fmt.Errorf("store: write result: %w", err)
	}
	return nil
}

// Load reads a result by id. Missing files map to ErrNotFound.
func (r *Results) Load(id string) (*Result, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("store: decode result: %w", err)
	}
	return &res, nil
}
