package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritylabs/fosight/internal/db"
	"github.com/veritylabs/fosight/internal/models"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List analysis jobs or show one job",
	Long: `List recent analysis jobs, or show the full state of a single job.

Examples:
  fosight jobs
  fosight jobs --limit 50
  fosight jobs 3f6c1a2e-9d44-4c1b-b6aa-0f2d7c9e4a11`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "max results")
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}

	jobs, err := dbClient.RecentJobs(ctx, jobsLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	fmt.Printf("Jobs (%d):\n\n", len(jobs))
	for i := range jobs {
		job := &jobs[i]
		line := fmt.Sprintf("  %s  %-10s  %s", job.JobID(), job.Status, job.CreatedAt.Format("2006-01-02 15:04:05"))
		if job.Status == models.JobStatusComplete && job.Report != nil {
			line += "  " + job.Report.PredictedOutcome.Outcome
		}
		fmt.Println(line)
	}
	return nil
}

func showJob(ctx context.Context, jobID string) error {
	job, err := dbClient.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("job %s not found", jobID)
		}
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job:        %s\n", job.JobID())
	fmt.Printf("Status:     %s\n", job.Status)
	fmt.Printf("Created:    %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	if job.CompletedAt != nil {
		fmt.Printf("Completed:  %s\n", job.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if job.ErrorMessage != nil {
		fmt.Printf("Error:      %s\n", *job.ErrorMessage)
	}
	if job.Report != nil {
		fmt.Printf("Outcome:    %s", job.Report.PredictedOutcome.Outcome)
		if job.Report.PredictedOutcome.Confidence != "" {
			fmt.Printf(" (%s)", job.Report.PredictedOutcome.Confidence)
		}
		fmt.Println()
	}
	return nil
}
