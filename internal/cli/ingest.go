package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/veritylabs/fosight/internal/analysis"
	"github.com/veritylabs/fosight/internal/extract"
	"github.com/veritylabs/fosight/internal/service"
	"golang.org/x/term"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Load precedent decision documents into the corpus",
	Long: `Ingest walks a directory of historical FOS decision documents (.pdf or
.txt), extracts their text, derives product/theme metadata, embeds a
summary of each case and upserts it into the precedent corpus.

Re-running on the same directory updates existing cases in place; the
file name (without extension) is the case ID.

Examples:
  fosight ingest ./decisions
  fosight ingest /data/fos-corpus --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx := cmd.Context()

	if err := initLLM(ctx); err != nil {
		return err
	}

	logger := cliLogger()
	svc := service.NewIngestService(
		dbClient,
		extract.NewPDFExtractor(),
		embedder,
		buildClassifier(cfg.ClassifierRules, logger),
		logger,
	)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runIngestInteractive(ctx, svc, dir)
	}
	return runIngestPlain(ctx, svc, dir)
}

// runIngestPlain is used when stdout is not a terminal (pipes, CI).
func runIngestPlain(ctx context.Context, svc *service.IngestService, dir string) error {
	result, err := svc.IngestDirectory(ctx, dir, func(done, total int, file string) {
		fmt.Printf("[%d/%d] %s\n", done, total, file)
	})
	if err != nil {
		return err
	}
	printIngestResult(os.Stdout, result)
	return nil
}

func printIngestResult(w io.Writer, result *service.IngestResult) {
	fmt.Fprintf(w, "\nProcessed %d file(s)\n", result.FilesProcessed)
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "Failed %d file(s):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// cliLogger keeps command output clean: INFO and below go nowhere unless
// --verbose is set.
func cliLogger() *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildClassifier loads keyword rules from path, falling back to the
// built-in defaults when the path is empty or unreadable.
func buildClassifier(path string, logger *slog.Logger) analysis.Classifier {
	rules := analysis.DefaultClassifierRules()
	if path != "" {
		loaded, err := analysis.LoadClassifierRules(path)
		if err != nil {
			logger.Warn("failed to load classifier rules, using defaults", "path", path, "error", err)
		} else {
			rules = loaded
		}
	}
	return analysis.NewKeywordClassifier(rules)
}
