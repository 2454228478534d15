// CLAUDE:SUMMARY Entry point for the Deep Research HTTP service — config, wiring, chi router, graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/JohanWes/deepresearch/config"
	"github.com/JohanWes/deepresearch/extract"
	"github.com/JohanWes/deepresearch/llm"
	"github.com/JohanWes/deepresearch/research"
	"github.com/JohanWes/deepresearch/search"
	"github.com/JohanWes/deepresearch/server"
	"github.com/JohanWes/deepresearch/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.GoogleAPIKey == "" || cfg.GoogleCX == "" {
		slog.Warn("GOOGLE_API_KEY or GOOGLE_CX not set, searches will return no results")
	}
	if cfg.OpenRouterKey == "" {
		slog.Warn("OPENROUTER_API_KEY not set, synthesis will fail")
	}

	searcher := search.New(search.Config{
		APIKey:       cfg.GoogleAPIKey,
		CX:           cfg.GoogleCX,
		TotalResults: cfg.SearchTotalResults,
		Logger:       logger,
	})
	extractor := extract.New(extract.Config{Logger: logger})
	streamer := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenRouterKey,
		Referer: "http://localhost:" + cfg.Port,
		AppName: "Deep Research",
		Logger:  logger,
	})

	results, err := store.NewResults(filepath.Join(cfg.DataDir, "results"))
	if err != nil {
		slog.Error("results store", "error", err)
		os.Exit(1)
	}

	var usage store.UsageStore
	switch cfg.UsageBackend {
	case "sqlite":
		sq, err := store.NewSQLiteUsage(filepath.Join(cfg.DataDir, "usage", "usage.db"))
		if err != nil {
			slog.Error("usage store", "error", err)
			os.Exit(1)
		}
		defer sq.Close()
		usage = sq
	default:
		fu, err := store.NewFileUsage(filepath.Join(cfg.DataDir, "usage"))
		if err != nil {
			slog.Error("usage store", "error", err)
			os.Exit(1)
		}
		usage = fu
	}

	orchestrator := research.New(streamer, results, research.Config{Logger: logger})

	srv := server.New(cfg, logger, server.Deps{
		Searcher:     searcher,
		Extractor:    extractor,
		Orchestrator: orchestrator,
		Results:      results,
		Usage:        usage,
	})

	// No WriteTimeout: synthesis streams can legitimately run for minutes.
	httpSrv := &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "usage_backend", cfg.UsageBackend,
			"default_model", cfg.DefaultModel)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
