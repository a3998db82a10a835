package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritylabs/fosight/internal/analysis"
	"github.com/veritylabs/fosight/internal/models"
)

type recordingPrecedentStore struct {
	upserts []models.Precedent
	err     error
}

func (s *recordingPrecedentStore) UpsertPrecedent(_ context.Context, p models.Precedent) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, p)
	return nil
}

func (s *recordingPrecedentStore) CountPrecedents(_ context.Context) (int, error) {
	return len(s.upserts), nil
}

type summaryEmbedder struct {
	texts []string
	err   error
}

func (e *summaryEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.texts = append(e.texts, text)
	return []float32{1, 2, 3}, nil
}

type passthroughExtractor struct{}

func (passthroughExtractor) Extract(data []byte) (string, error) {
	return string(data), nil
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newTestIngestService(store PrecedentStore, embedder analysis.Embedder) *IngestService {
	classifier := analysis.NewKeywordClassifier(analysis.DefaultClassifierRules())
	return NewIngestService(store, passthroughExtractor{}, embedder, classifier, nil)
}

func TestIngestDirectory(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"DRN0060527.txt": "The complaint about credit card fees is upheld. The firm must refund the charges.",
		"DRN0099001.txt": "The mortgage complaint is not upheld. The firm acted fairly.",
		"notes.md":       "ignored: unsupported extension",
	})

	store := &recordingPrecedentStore{}
	embedder := &summaryEmbedder{}
	svc := newTestIngestService(store, embedder)

	var seen []string
	result, err := svc.IngestDirectory(context.Background(), dir, func(done, total int, file string) {
		assert.Equal(t, 2, total)
		seen = append(seen, file)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesProcessed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"DRN0060527.txt", "DRN0099001.txt"}, seen)

	require.Len(t, store.upserts, 2)
	first := store.upserts[0]
	assert.Equal(t, "DRN0060527", first.CaseID)
	assert.Equal(t, "Credit Card", first.ProductType)
	assert.Equal(t, "Upheld", first.FOSOutcome)
	assert.Equal(t, []float32{1, 2, 3}, first.Embedding)

	second := store.upserts[1]
	assert.Equal(t, "DRN0099001", second.CaseID)
	assert.Equal(t, "Not Upheld", second.FOSOutcome)

	// The embedding input is the metadata summary, not the decision text.
	require.Len(t, embedder.texts, 2)
	assert.Contains(t, embedder.texts[0], "Case: DRN0060527")
	assert.Contains(t, embedder.texts[0], "Product: Credit Card")
	assert.NotContains(t, embedder.texts[0], "refund the charges")
}

func TestIngestDirectory_PerFileErrorsCollected(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"DRN0000001.txt": "   ",
		"DRN0000002.txt": "The loan complaint is upheld.",
	})

	store := &recordingPrecedentStore{}
	svc := newTestIngestService(store, &summaryEmbedder{})

	result, err := svc.IngestDirectory(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesProcessed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "DRN0000001.txt")
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "DRN0000002", store.upserts[0].CaseID)
}

func TestIngestDirectory_EmbedFailureDoesNotAbortRun(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"DRN0000001.txt": "The fee complaint is upheld.",
		"DRN0000002.txt": "The fee complaint is upheld.",
	})

	store := &recordingPrecedentStore{}
	svc := newTestIngestService(store, &summaryEmbedder{err: errors.New("embedding service down")})

	result, err := svc.IngestDirectory(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.FilesProcessed)
	assert.Len(t, result.Errors, 2)
	assert.Empty(t, store.upserts)
}

func TestIngestDirectory_Cancelled(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"DRN0000001.txt": "The fee complaint is upheld.",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestIngestService(&recordingPrecedentStore{}, &summaryEmbedder{})
	_, err := svc.IngestDirectory(ctx, dir, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestDirectory_MissingDir(t *testing.T) {
	svc := newTestIngestService(&recordingPrecedentStore{}, &summaryEmbedder{})
	_, err := svc.IngestDirectory(context.Background(), "/no/such/dir", nil)
	assert.Error(t, err)
}
