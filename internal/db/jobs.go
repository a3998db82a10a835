package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/veritylabs/fosight/internal/models"
)

// CreateJob creates a new job record in PENDING state.
func (c *Client) CreateJob(ctx context.Context, jobID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("job", $id) SET status = $status
	`, map[string]any{
		"id":     jobID,
		"status": string(models.JobStatusPending),
	})
	if err != nil {
		return fmt.Errorf("create job: %w", wrapQueryError(err))
	}
	return nil
}

// GetJob retrieves a job by ID. Returns ErrNotFound if it does not exist.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	results, err := surrealdb.Query[[]models.Job](ctx, c.db, `
		SELECT * FROM type::record("job", $id)
	`, map[string]any{"id": jobID})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// SetJobStatus updates only the status field.
func (c *Client) SetJobStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("job", $id) SET status = $status
	`, map[string]any{"id": jobID, "status": string(status)})
	if err != nil {
		return fmt.Errorf("set job status: %w", wrapQueryError(err))
	}
	return nil
}

// SaveJobTexts persists the extracted document texts. Written as soon as
// extraction succeeds so later-stage failures don't lose them.
func (c *Client) SaveJobTexts(ctx context.Context, jobID, complaintText, frlText string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("job", $id) SET
			complaint_text = $complaint_text,
			frl_text = $frl_text
	`, map[string]any{
		"id":             jobID,
		"complaint_text": complaintText,
		"frl_text":       frlText,
	})
	if err != nil {
		return fmt.Errorf("save job texts: %w", wrapQueryError(err))
	}
	return nil
}

// CompleteJob atomically persists COMPLETE and the report in one update.
func (c *Client) CompleteJob(ctx context.Context, jobID string, report *models.Report) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("job", $id) SET
			status = $status,
			report = $report,
			completed_at = time::now()
	`, map[string]any{
		"id":     jobID,
		"status": string(models.JobStatusComplete),
		"report": report,
	})
	if err != nil {
		return fmt.Errorf("complete job: %w", wrapQueryError(err))
	}
	return nil
}

// FailJob persists the ERROR terminal state with a human-readable message.
func (c *Client) FailJob(ctx context.Context, jobID, message string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("job", $id) SET
			status = $status,
			error_message = $message,
			completed_at = time::now()
	`, map[string]any{
		"id":      jobID,
		"status":  string(models.JobStatusError),
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("fail job: %w", wrapQueryError(err))
	}
	return nil
}

// RecentJobs returns the most recently created jobs, newest first.
func (c *Client) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := surrealdb.Query[[]models.Job](ctx, c.db, `
		SELECT * FROM job ORDER BY created_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("recent jobs: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Job{}, nil
}

// statusCount is a status with its job count.
type statusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CountJobsByStatus returns job counts grouped by status.
func (c *Client) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	results, err := surrealdb.Query[[]statusCount](ctx, c.db, `
		SELECT status, count() AS count FROM job GROUP BY status
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", wrapQueryError(err))
	}

	counts := make(map[models.JobStatus]int)
	if results != nil && len(*results) > 0 {
		for _, row := range (*results)[0].Result {
			counts[models.JobStatus(row.Status)] = row.Count
		}
	}
	return counts, nil
}

// CountPredictedUpheld returns the number of completed jobs whose predicted
// outcome mentions an uphold.
func (c *Client) CountPredictedUpheld(ctx context.Context) (int, error) {
	results, err := surrealdb.Query[[]statusCount](ctx, c.db, `
		SELECT count() AS count FROM job
		WHERE status = "COMPLETE"
			AND string::contains(<string>report.predicted_fos_outcome.outcome, "Upheld")
		GROUP ALL
	`, nil)
	if err != nil {
		return 0, fmt.Errorf("count predicted upheld: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Count, nil
	}
	return 0, nil
}
