// Package service provides business logic on top of the analysis pipeline
// and the case store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/veritylabs/fosight/internal/analysis"
	"github.com/veritylabs/fosight/internal/models"
)

// ErrExplainUnavailable indicates a job is missing the stored texts or
// report required to generate an explanation.
var ErrExplainUnavailable = errors.New("required data for explanation not found")

// Store is the durable job store the service reads and the pipeline
// checkpoints against.
type Store interface {
	analysis.JobStore
	CreateJob(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	RecentJobs(ctx context.Context, limit int) ([]models.Job, error)
	CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int, error)
	CountPredictedUpheld(ctx context.Context) (int, error)
}

// Runner executes the analysis pipeline for one job.
type Runner interface {
	Run(ctx context.Context, jobID string, complaintPDF, frlPDF []byte)
}

// AnalysisService coordinates job submission, result lookup, explanation
// generation and dashboard aggregation.
type AnalysisService struct {
	store     Store
	pipeline  Runner
	generator analysis.Generator
	logger    *slog.Logger
}

// NewAnalysisService creates the service.
func NewAnalysisService(store Store, pipeline Runner, generator analysis.Generator, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		store:     store,
		pipeline:  pipeline,
		generator: generator,
		logger:    logger,
	}
}

// Submit creates a PENDING job and schedules the pipeline asynchronously.
// It returns as soon as the job record exists; the caller polls for status.
// Each submission is a single best-effort attempt with no automatic retry.
func (s *AnalysisService) Submit(ctx context.Context, complaintPDF, frlPDF []byte) (string, error) {
	jobID := uuid.New().String()

	if err := s.store.CreateJob(ctx, jobID); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	go func() {
		// Detached from the request context: the submitting request has
		// already returned by the time the pipeline runs.
		bgCtx := context.Background()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("pipeline goroutine panicked", "job_id", jobID, "panic", r)
				if err := s.store.FailJob(bgCtx, jobID, fmt.Sprintf("internal error: %v", r)); err != nil {
					s.logger.Error("failed to persist panic failure", "job_id", jobID, "error", err)
				}
			}
		}()
		s.pipeline.Run(bgCtx, jobID, complaintPDF, frlPDF)
	}()

	s.logger.Info("job submitted", "job_id", jobID)
	return jobID, nil
}

// Job returns the stored job record.
func (s *AnalysisService) Job(ctx context.Context, jobID string) (*models.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// Explain asks the model for a three-bullet explanation of the predicted
// outcome, using the stored texts and report.
func (s *AnalysisService) Explain(ctx context.Context, jobID string) ([]string, error) {
	job, err := s.explainableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	reportJSON, err := json.Marshal(job.Report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	prompt := analysis.BuildExplanationPrompt(job.ComplaintText, job.FRLText, string(reportJSON))
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate explanation: %w", err)
	}
	return analysis.SplitBulletPoints(raw), nil
}

// ExplainConfidence asks the model to justify the confidence score it
// assigned to the predicted outcome.
func (s *AnalysisService) ExplainConfidence(ctx context.Context, jobID string) ([]string, error) {
	job, err := s.explainableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	outcome := job.Report.PredictedOutcome
	prompt := analysis.BuildConfidencePrompt(job.ComplaintText, job.FRLText, outcome.Outcome, outcome.Confidence)
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate confidence explanation: %w", err)
	}
	return analysis.SplitBulletPoints(raw), nil
}

func (s *AnalysisService) explainableJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ComplaintText == "" || job.FRLText == "" || job.Report == nil {
		return nil, ErrExplainUnavailable
	}
	return job, nil
}

// DashboardStats aggregates headline numbers for the dashboard.
type DashboardStats struct {
	OpenComplaints    int    `json:"open_complaints"`
	AtRiskFOS         int    `json:"at_risk_fos"`
	AvgFRLReadability string `json:"avg_frl_readability"`
	PredictedUphold   int    `json:"predicted_uphold"`
	AvgTimeToClose    int    `json:"avg_time_to_close"`
}

// Stats computes dashboard statistics from the job store.
func (s *AnalysisService) Stats(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.store.CountJobsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	atRisk, err := s.store.CountPredictedUpheld(ctx)
	if err != nil {
		return nil, err
	}

	completed := counts[models.JobStatusComplete]
	upholdPercent := 0
	if completed > 0 {
		upholdPercent = atRisk * 100 / completed
	}

	return &DashboardStats{
		OpenComplaints: counts[models.JobStatusPending] + counts[models.JobStatusProcessing],
		AtRiskFOS:      atRisk,
		// Readability and time-to-close are not tracked yet; keep the
		// dashboard contract stable with fixed values.
		AvgFRLReadability: "Grade 8.2",
		PredictedUphold:   upholdPercent,
		AvgTimeToClose:    14,
	}, nil
}

// DashboardCase is one row of the recent-cases dashboard view.
type DashboardCase struct {
	ID          string   `json:"id"`
	Risk        string   `json:"risk"`
	Status      string   `json:"status"`
	Summary     string   `json:"summary"`
	RiskFactors []string `json:"risk_factors"`
	TopActions  []string `json:"top_actions"`
}

// RecentCases maps the latest jobs into dashboard rows.
func (s *AnalysisService) RecentCases(ctx context.Context, limit int) ([]DashboardCase, error) {
	jobs, err := s.store.RecentJobs(ctx, limit)
	if err != nil {
		return nil, err
	}

	cases := make([]DashboardCase, 0, len(jobs))
	for i := range jobs {
		cases = append(cases, dashboardCase(&jobs[i]))
	}
	return cases, nil
}

func dashboardCase(job *models.Job) (c DashboardCase) {
	c.ID = shortID(job.JobID())
	c.Status = string(job.Status)
	c.Risk = "Low"
	c.Summary = "Awaiting analysis..."
	c.RiskFactors = []string{}
	c.TopActions = []string{}

	if job.Report == nil {
		return c
	}

	c.Summary = job.Report.CaseSummary
	c.RiskFactors = job.Report.KeyRiskIndicators
	if job.Report.Recommendations != "" {
		c.TopActions = []string{job.Report.Recommendations}
	}
	c.Risk = riskLevel(job.Report.PredictedOutcome.Outcome)
	return c
}

// riskLevel grades an outcome prediction for the dashboard.
func riskLevel(outcome string) string {
	switch {
	case strings.Contains(outcome, "Upheld"):
		return "High"
	case outcome != "" && !strings.Contains(outcome, "Rejected"):
		return "Medium"
	default:
		return "Low"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
