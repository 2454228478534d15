// CLAUDE:SUMMARY Per-fingerprint daily usage counters — interface plus the default per-day JSON file backing.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UsageStore counts requests per client fingerprint per UTC day.
type UsageStore interface {
	// Count returns today's count for the fingerprint.
	Count(ctx context.Context, fingerprint string) (int, error)
	// Increment bumps today's count and returns the new value.
	Increment(ctx context.Context, fingerprint string) (int, error)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type usageEntry struct {
	Count int `json:"count"`
}

// FileUsage keeps one JSON file per day mapping fingerprint to count.
// The mutex makes read-modify-write atomic within this process; the
// format stays a plain file so days can be inspected and pruned by hand.
type FileUsage struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileUsage creates the usage directory if needed.
func NewFileUsage(dir string) (*FileUsage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create usage dir: %w", err)
	}
	return &FileUsage{dir: dir, now: time.Now}, nil
}

func (u *FileUsage) path(day string) string {
	return filepath.Join(u.dir, day+".json")
}

func (u *FileUsage) load(day string) (map[string]usageEntry, error) {
	data, err := os.ReadFile(u.path(day))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]usageEntry{}, nil
		}
		return nil, fmt.Errorf("store: read usage: %w", err)
	}
	entries := map[string]usageEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("store: decode usage: %w", err)
	}
	return entries, nil
}

func (u *FileUsage) Count(ctx context.Context, fingerprint string) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	entries, err := u.load(dayKey(u.now()))
	if err != nil {
		return 0, err
	}
	return entries[fingerprint].Count, nil
}

func (u *FileUsage) Increment(ctx context.Context, fingerprint string) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	day := dayKey(u.now())
	entries, err := u.load(day)
	if err != nil {
		return 0, err
	}
	e := entries[fingerprint]
	e.Count++
	entries[fingerprint] = e

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("store: marshal usage: %w", err)
	}
	if err := os.WriteFile(u.path(day), data, 0o644); err != nil {
		return 0, fmt.Errorf("store: write usage: %w", err)
	}
	return e.Count, nil
}
