// Package analysis implements the asynchronous document analysis pipeline:
// text extraction, embedding, precedent retrieval, prompt construction,
// generative invocation and defensive report parsing, coordinated behind a
// durable job state machine.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veritylabs/fosight/internal/metrics"
	"github.com/veritylabs/fosight/internal/models"
)

// JobStore is the durable status store the pipeline checkpoints against.
// Each update is independent; no cross-update transactions are assumed.
type JobStore interface {
	SetJobStatus(ctx context.Context, jobID string, status models.JobStatus) error
	SaveJobTexts(ctx context.Context, jobID, complaintText, frlText string) error
	CompleteJob(ctx context.Context, jobID string, report *models.Report) error
	FailJob(ctx context.Context, jobID, message string) error
}

// PrecedentSearcher retrieves similar historical cases by embedding plus
// coarse filters. Zero matches is a valid result, not an error.
type PrecedentSearcher interface {
	SearchPrecedents(ctx context.Context, embedding []float32, filters models.CaseFilters, k int) ([]models.PrecedentMatch, error)
}

// Extractor converts a binary PDF document into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Embedder maps text to a fixed-length dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator performs a single synchronous generative completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline drives the end-to-end analysis sequence for one job at a time.
// It is stateless across jobs and safe for concurrent use; the shared
// embedder and generator are constructed once at startup.
type Pipeline struct {
	jobs       JobStore
	precedents PrecedentSearcher
	extractor  Extractor
	embedder   Embedder
	generator  Generator
	classifier Classifier
	collector  *metrics.Collector
	topK       int
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. The collector may be nil.
func NewPipeline(
	jobs JobStore,
	precedents PrecedentSearcher,
	extractor Extractor,
	embedder Embedder,
	generator Generator,
	classifier Classifier,
	collector *metrics.Collector,
	topK int,
	logger *slog.Logger,
) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		jobs:       jobs,
		precedents: precedents,
		extractor:  extractor,
		embedder:   embedder,
		generator:  generator,
		classifier: classifier,
		collector:  collector,
		topK:       topK,
		logger:     logger,
	}
}

// Run executes the full analysis for one job: extract both documents, derive
// filters, embed, retrieve precedents, build the prompt, invoke the model,
// parse the report and persist the terminal state. Any stage failure lands
// the job in ERROR with a captured message; nothing is re-raised since
// execution is decoupled from the submitting request.
func (p *Pipeline) Run(ctx context.Context, jobID string, complaintPDF, frlPDF []byte) {
	log := p.logger.With("job_id", jobID)
	log.Info("analysis pipeline started")

	if err := p.run(ctx, log, jobID, complaintPDF, frlPDF); err != nil {
		log.Error("analysis pipeline failed", "error", err)
		failErr := p.checkpoint(func() error {
			return p.jobs.FailJob(ctx, jobID, err.Error())
		})
		if failErr != nil {
			log.Error("failed to persist job failure", "error", failErr)
		}
		return
	}

	log.Info("analysis pipeline completed")
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, jobID string, complaintPDF, frlPDF []byte) error {
	// 1. Commit PROCESSING before touching either document.
	err := p.checkpoint(func() error {
		return p.jobs.SetJobStatus(ctx, jobID, models.JobStatusProcessing)
	})
	if err != nil {
		return fmt.Errorf("set status PROCESSING: %w", err)
	}

	// 2. Extract both documents and persist texts immediately. The stored
	// texts are a durability point: explanation endpoints stay functional
	// even if a later stage fails.
	complaintText, err := p.extract(complaintPDF)
	if err != nil {
		return fmt.Errorf("complaint document: %w", err)
	}
	frlText, err := p.extract(frlPDF)
	if err != nil {
		return fmt.Errorf("frl document: %w", err)
	}
	err = p.checkpoint(func() error {
		return p.jobs.SaveJobTexts(ctx, jobID, complaintText, frlText)
	})
	if err != nil {
		return fmt.Errorf("persist extracted texts: %w", err)
	}
	log.Debug("documents extracted", "complaint_len", len(complaintText), "frl_len", len(frlText))

	// 3. Best-effort coarse classification; defaults are fine, never fatal.
	filters := p.classifier.Classify(complaintText)
	log.Debug("complaint classified", "product_type", filters.ProductType, "key_themes", filters.KeyThemes)

	// 4. Embed the complaint.
	start := time.Now()
	embedding, err := p.embedder.Embed(ctx, complaintText)
	p.record(metrics.OpEmbed, start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	// 5. Retrieve top-K precedents. Empty results degrade the prompt, not
	// the job; only a store failure is fatal.
	start = time.Now()
	precedents, err := p.precedents.SearchPrecedents(ctx, embedding, filters, p.topK)
	p.record(metrics.OpSearch, start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	log.Debug("precedents retrieved", "count", len(precedents))

	// 6. Build the master prompt.
	prompt := BuildMasterPrompt(complaintText, frlText, precedents)

	// 7. Invoke the generative model once; no retries, no streaming.
	start = time.Now()
	raw, err := p.generator.Generate(ctx, prompt)
	p.record(metrics.OpGenerate, start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	// 8. Parse and validate the report.
	start = time.Now()
	report, err := ParseReport(raw)
	p.record(metrics.OpParse, start)
	if err != nil {
		return err
	}

	// 9. Persist COMPLETE and the report in a single update.
	err = p.checkpoint(func() error {
		return p.jobs.CompleteJob(ctx, jobID, report)
	})
	if err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	return nil
}

// checkpoint times a job store write.
func (p *Pipeline) checkpoint(write func() error) error {
	start := time.Now()
	err := write()
	p.record(metrics.OpDBUpdate, start)
	return err
}

func (p *Pipeline) extract(data []byte) (string, error) {
	start := time.Now()
	text, err := p.extractor.Extract(data)
	p.record(metrics.OpExtract, start)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return text, nil
}

func (p *Pipeline) record(op string, start time.Time) {
	if p.collector != nil {
		p.collector.RecordTiming(op, time.Since(start))
	}
}
