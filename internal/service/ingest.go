package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/veritylabs/fosight/internal/analysis"
	"github.com/veritylabs/fosight/internal/models"
)

// PrecedentStore is the corpus side of the store, written by ingestion.
type PrecedentStore interface {
	UpsertPrecedent(ctx context.Context, p models.Precedent) error
	CountPrecedents(ctx context.Context) (int, error)
}

// IngestService populates the precedent corpus from a directory of decision
// documents. Same extraction/embedding technique as the live pipeline, but
// run offline.
type IngestService struct {
	store      PrecedentStore
	extractor  analysis.Extractor
	embedder   analysis.Embedder
	classifier analysis.Classifier
	logger     *slog.Logger
}

// NewIngestService creates the corpus ingestion service.
func NewIngestService(store PrecedentStore, extractor analysis.Extractor, embedder analysis.Embedder, classifier analysis.Classifier, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		store:      store,
		extractor:  extractor,
		embedder:   embedder,
		classifier: classifier,
		logger:     logger,
	}
}

// IngestResult summarizes a corpus ingestion run.
type IngestResult struct {
	FilesProcessed int
	FilesSkipped   int
	Errors         []string
}

// ProgressFunc reports ingestion progress after each file.
type ProgressFunc func(done, total int, file string)

// IngestDirectory processes every .pdf and .txt file in dir and upserts one
// precedent per file, keyed by the file's base name. Per-file failures are
// collected, not fatal to the run.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, progress ProgressFunc) (*IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt":
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	result := &IngestResult{}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.ingestFile(ctx, dir, name); err != nil {
			s.logger.Warn("failed to ingest precedent", "file", name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		} else {
			result.FilesProcessed++
		}

		if progress != nil {
			progress(i+1, len(files), name)
		}
	}

	s.logger.Info("corpus ingestion finished",
		"processed", result.FilesProcessed,
		"skipped", result.FilesSkipped,
		"errors", len(result.Errors))
	return result, nil
}

func (s *IngestService) ingestFile(ctx context.Context, dir, name string) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var text string
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		text, err = s.extractor.Extract(data)
		if err != nil {
			return fmt.Errorf("extract text: %w", err)
		}
	} else {
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no extractable text")
	}

	precedent := s.buildPrecedent(name, text)

	// Embed a concatenated summary of the key metadata rather than the full
	// decision text; it retrieves better for short complaint queries.
	summary := fmt.Sprintf("Case: %s. Product: %s. Themes: %s. Outcome: %s",
		precedent.CaseID, precedent.ProductType,
		strings.Join(precedent.KeyThemes, ", "), precedent.FOSOutcome)
	embedding, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embed precedent: %w", err)
	}
	precedent.Embedding = embedding

	if err := s.store.UpsertPrecedent(ctx, precedent); err != nil {
		return fmt.Errorf("store precedent: %w", err)
	}
	return nil
}

// buildPrecedent derives precedent metadata from the decision text.
func (s *IngestService) buildPrecedent(filename, text string) models.Precedent {
	filters := s.classifier.Classify(text)

	outcome := "Not Upheld"
	if strings.Contains(strings.ToLower(text), "upheld") &&
		!strings.Contains(strings.ToLower(text), "not upheld") {
		outcome = "Upheld"
	}

	return models.Precedent{
		CaseID:      strings.TrimSuffix(filename, filepath.Ext(filename)),
		ProductType: filters.ProductType,
		KeyThemes:   filters.KeyThemes,
		FOSOutcome:  outcome,
		FullText:    text,
	}
}
