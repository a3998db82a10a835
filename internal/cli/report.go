package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritylabs/fosight/internal/db"
	"github.com/veritylabs/fosight/internal/service"
)

var reportExplain bool

var reportCmd = &cobra.Command{
	Use:   "report <job-id>",
	Short: "Print a completed analysis report",
	Long: `Print the full JSON report of a completed analysis job.

With --explain, also ask the model why it predicted the outcome it did.

Examples:
  fosight report 3f6c1a2e-9d44-4c1b-b6aa-0f2d7c9e4a11
  fosight report 3f6c1a2e-9d44-4c1b-b6aa-0f2d7c9e4a11 --explain`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportExplain, "explain", false, "explain the predicted outcome")
}

func runReport(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	ctx := cmd.Context()

	job, err := dbClient.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("job %s not found", jobID)
		}
		return fmt.Errorf("get job: %w", err)
	}

	if job.Report == nil {
		return fmt.Errorf("job %s has no report (status %s)", jobID, job.Status)
	}

	out, err := json.MarshalIndent(job.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(out))

	if !reportExplain {
		return nil
	}
	return explainReport(ctx, jobID)
}

func explainReport(ctx context.Context, jobID string) error {
	if err := initLLM(ctx); err != nil {
		return err
	}

	svc := service.NewAnalysisService(dbClient, nil, model, cliLogger())
	bullets, err := svc.Explain(ctx, jobID)
	if err != nil {
		if errors.Is(err, service.ErrExplainUnavailable) {
			return fmt.Errorf("job %s is missing the stored texts needed for an explanation", jobID)
		}
		return fmt.Errorf("explain report: %w", err)
	}

	fmt.Println("\nWhy this outcome:")
	for _, b := range bullets {
		fmt.Printf("  - %s\n", b)
	}
	return nil
}
