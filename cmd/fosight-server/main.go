// Package main provides the fosight analysis server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veritylabs/fosight/internal/analysis"
	"github.com/veritylabs/fosight/internal/config"
	"github.com/veritylabs/fosight/internal/db"
	"github.com/veritylabs/fosight/internal/extract"
	"github.com/veritylabs/fosight/internal/llm"
	"github.com/veritylabs/fosight/internal/metrics"
	"github.com/veritylabs/fosight/internal/server"
	"github.com/veritylabs/fosight/internal/service"
)

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger("server", cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting fosight-server",
		"addr", cfg.ListenAddr,
		"llm_provider", cfg.LLMProvider,
		"embed_provider", cfg.EmbedProvider)

	// Connect to the case store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// LLM components fail fast at startup, not on first job
	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	model, err := llm.NewModel(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to create model", "error", err)
		os.Exit(1)
	}

	classifier := buildClassifier(cfg, logger)
	collector := metrics.NewCollector()

	pipeline := analysis.NewPipeline(
		dbClient,
		dbClient,
		extract.NewPDFExtractor(),
		embedder,
		model,
		classifier,
		collector,
		cfg.PrecedentTopK,
		logger,
	)
	svc := service.NewAnalysisService(dbClient, pipeline, model, logger)

	srv := server.New(cfg.ListenAddr, svc, collector, logger)

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func buildClassifier(cfg config.Config, logger *slog.Logger) analysis.Classifier {
	rules := analysis.DefaultClassifierRules()
	if cfg.ClassifierRules != "" {
		loaded, err := analysis.LoadClassifierRules(cfg.ClassifierRules)
		if err != nil {
			logger.Warn("failed to load classifier rules, using defaults",
				"path", cfg.ClassifierRules, "error", err)
		} else {
			rules = loaded
		}
	}
	return analysis.NewKeywordClassifier(rules)
}
