package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritylabs/fosight/internal/metrics"
	"github.com/veritylabs/fosight/internal/models"
)

// fakeStore records every checkpoint write in order.
type fakeStore struct {
	mu     sync.Mutex
	events []string
	jobs   map[string]*models.Job

	failStatus error
	failTexts  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*models.Job)}
}

func (s *fakeStore) job(jobID string) *models.Job {
	j, ok := s.jobs[jobID]
	if !ok {
		j = &models.Job{Status: models.JobStatusPending}
		s.jobs[jobID] = j
	}
	return j
}

func (s *fakeStore) SetJobStatus(_ context.Context, jobID string, status models.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus != nil {
		return s.failStatus
	}
	s.events = append(s.events, "status:"+string(status))
	s.job(jobID).Status = status
	return nil
}

func (s *fakeStore) SaveJobTexts(_ context.Context, jobID, complaintText, frlText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTexts != nil {
		return s.failTexts
	}
	s.events = append(s.events, "texts")
	j := s.job(jobID)
	j.ComplaintText = complaintText
	j.FRLText = frlText
	return nil
}

func (s *fakeStore) CompleteJob(_ context.Context, jobID string, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "complete")
	j := s.job(jobID)
	j.Status = models.JobStatusComplete
	j.Report = report
	return nil
}

func (s *fakeStore) FailJob(_ context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "error")
	j := s.job(jobID)
	j.Status = models.JobStatusError
	j.ErrorMessage = &message
	return nil
}

type fakeExtractor struct {
	err error
}

func (e *fakeExtractor) Extract(data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "text:" + string(data), nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

type fakeSearcher struct {
	mu      sync.Mutex
	matches []models.PrecedentMatch
	err     error
	gotK    int
	filters models.CaseFilters
}

func (s *fakeSearcher) SearchPrecedents(_ context.Context, _ []float32, filters models.CaseFilters, k int) ([]models.PrecedentMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotK = k
	s.filters = filters
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	output string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.output, nil
}

type pipelineFixture struct {
	store     *fakeStore
	extractor *fakeExtractor
	embedder  *fakeEmbedder
	searcher  *fakeSearcher
	generator *fakeGenerator
	collector *metrics.Collector
	pipeline  *Pipeline
}

func newFixture() *pipelineFixture {
	f := &pipelineFixture{
		store:     newFakeStore(),
		extractor: &fakeExtractor{},
		embedder:  &fakeEmbedder{},
		searcher: &fakeSearcher{matches: []models.PrecedentMatch{
			{CaseID: "DRN0060527", FullText: "Similar fee dispute, upheld."},
		}},
		generator: &fakeGenerator{output: validReportJSON()},
		collector: metrics.NewCollector(),
	}
	f.pipeline = NewPipeline(
		f.store, f.searcher, f.extractor, f.embedder, f.generator,
		NewKeywordClassifier(DefaultClassifierRules()),
		f.collector, 5, nil,
	)
	return f
}

func TestPipeline_HappyPath(t *testing.T) {
	f := newFixture()

	f.pipeline.Run(context.Background(), "job-1", []byte("complaint pdf"), []byte("frl pdf"))

	job := f.store.jobs["job-1"]
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusComplete, job.Status)
	require.NotNil(t, job.Report)
	assert.Equal(t, "Likely to be Upheld", job.Report.PredictedOutcome.Outcome)
	assert.Nil(t, job.ErrorMessage)

	// Checkpoint ordering: PROCESSING before texts, texts before COMPLETE,
	// and texts are non-empty before the terminal transition.
	assert.Equal(t, []string{"status:PROCESSING", "texts", "complete"}, f.store.events)
	assert.Equal(t, "text:complaint pdf", job.ComplaintText)
	assert.Equal(t, "text:frl pdf", job.FRLText)

	// The prompt received the extracted documents and the precedent.
	assert.Contains(t, f.generator.prompt, "text:complaint pdf")
	assert.Contains(t, f.generator.prompt, "text:frl pdf")
	assert.Contains(t, f.generator.prompt, "Precedent Case ID: DRN0060527")
	assert.Equal(t, 5, f.searcher.gotK)

	// All three status writes show up in the timing snapshot.
	snap := f.collector.Snapshot()
	require.Contains(t, snap.Operations, metrics.OpDBUpdate)
	assert.EqualValues(t, 3, snap.Operations[metrics.OpDBUpdate].Count)
}

func TestPipeline_FailureWriteIsTimed(t *testing.T) {
	f := newFixture()
	f.extractor.err = errors.New("not a pdf")

	f.pipeline.Run(context.Background(), "job-1", []byte("junk"), []byte("junk"))

	// PROCESSING plus the FailJob write.
	snap := f.collector.Snapshot()
	require.Contains(t, snap.Operations, metrics.OpDBUpdate)
	assert.EqualValues(t, 2, snap.Operations[metrics.OpDBUpdate].Count)
}

func TestPipeline_ExtractionFailure(t *testing.T) {
	f := newFixture()
	f.extractor.err = errors.New("not a pdf")

	f.pipeline.Run(context.Background(), "job-1", []byte("junk"), []byte("junk"))

	job := f.store.jobs["job-1"]
	assert.Equal(t, models.JobStatusError, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "extraction failed")
	// Texts were never persisted, report never attached.
	assert.Empty(t, job.ComplaintText)
	assert.Nil(t, job.Report)
}

func TestPipeline_RetrievalFailure(t *testing.T) {
	f := newFixture()
	f.searcher.err = errors.New("connection refused")

	f.pipeline.Run(context.Background(), "job-1", []byte("c"), []byte("f"))

	job := f.store.jobs["job-1"]
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, *job.ErrorMessage, "precedent retrieval failed")
	// Extracted texts survive the failure: the durability point held.
	assert.Equal(t, "text:c", job.ComplaintText)
}

func TestPipeline_GenerationFailure(t *testing.T) {
	f := newFixture()
	f.generator.err = errors.New("model unavailable")

	f.pipeline.Run(context.Background(), "job-1", []byte("c"), []byte("f"))

	job := f.store.jobs["job-1"]
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, *job.ErrorMessage, "report generation failed")
}

func TestPipeline_UnparseableOutput(t *testing.T) {
	f := newFixture()
	f.generator.output = "I'm sorry, I can't produce a report for these documents."

	f.pipeline.Run(context.Background(), "job-1", []byte("c"), []byte("f"))

	job := f.store.jobs["job-1"]
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, *job.ErrorMessage, "report parsing failed")
	assert.Nil(t, job.Report)
}

func TestPipeline_IncompleteReportNeverCompletes(t *testing.T) {
	f := newFixture()
	f.generator.output = `{"case_summary": "valid JSON but missing everything else"}`

	f.pipeline.Run(context.Background(), "job-1", []byte("c"), []byte("f"))

	// The client must never observe COMPLETE with a partial report.
	job := f.store.jobs["job-1"]
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Nil(t, job.Report)
}

func TestPipeline_EmptyPrecedentsStillTerminates(t *testing.T) {
	f := newFixture()
	f.searcher.matches = nil

	f.pipeline.Run(context.Background(), "job-1", []byte("Customer disputes £500 fee"), []byte("Fee was correctly applied"))

	job := f.store.jobs["job-1"]
	assert.True(t, job.Status.Terminal(), "job must not hang in PROCESSING")
	assert.Equal(t, models.JobStatusComplete, job.Status)
	assert.NotContains(t, f.generator.prompt, "Precedent Case ID:")
}

func TestPipeline_StatusWriteFailure(t *testing.T) {
	f := newFixture()
	f.store.failStatus = errors.New("store down")

	f.pipeline.Run(context.Background(), "job-1", []byte("c"), []byte("f"))

	// Even the first checkpoint failing must produce a terminal ERROR.
	job := f.store.jobs["job-1"]
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Contains(t, *job.ErrorMessage, "store down")
}

func TestPipeline_ConcurrentJobsAreIsolated(t *testing.T) {
	f := newFixture()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobID := fmt.Sprintf("job-%d", i)
			complaint := fmt.Sprintf("complaint-%d", i)
			f.pipeline.Run(context.Background(), jobID, []byte(complaint), []byte("frl"))
		}(i)
	}
	wg.Wait()

	require.Len(t, f.store.jobs, n)
	for i := 0; i < n; i++ {
		job := f.store.jobs[fmt.Sprintf("job-%d", i)]
		require.NotNil(t, job)
		assert.True(t, job.Status.Terminal())
		// Each job's stored text matches only its own input.
		assert.Equal(t, fmt.Sprintf("text:complaint-%d", i), job.ComplaintText)
	}
}

func TestPipeline_ClassifierFiltersReachSearcher(t *testing.T) {
	f := newFixture()

	f.pipeline.Run(context.Background(), "job-1",
		[]byte("My credit card penalty fee was unfair"), []byte("frl"))

	assert.Equal(t, "Credit Card", f.filtersProduct())
	assert.True(t, strings.Contains(strings.Join(f.searcher.filters.KeyThemes, ","), "Fees and Charges"))
}

func (f *pipelineFixture) filtersProduct() string {
	return f.searcher.filters.ProductType
}
