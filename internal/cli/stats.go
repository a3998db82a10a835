package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritylabs/fosight/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus and job statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	precedents, err := dbClient.CountPrecedents(ctx)
	if err != nil {
		return fmt.Errorf("count precedents: %w", err)
	}
	counts, err := dbClient.CountJobsByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	atRisk, err := dbClient.CountPredictedUpheld(ctx)
	if err != nil {
		return fmt.Errorf("count at-risk jobs: %w", err)
	}

	fmt.Printf("Precedent corpus:   %d cases\n\n", precedents)
	fmt.Printf("Jobs:\n")
	for _, status := range []models.JobStatus{
		models.JobStatusPending,
		models.JobStatusProcessing,
		models.JobStatusComplete,
		models.JobStatusError,
	} {
		fmt.Printf("  %-12s %d\n", status, counts[status])
	}
	fmt.Printf("\nPredicted upheld:   %d\n", atRisk)
	return nil
}
