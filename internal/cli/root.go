// Package cli provides the command-line interface for fosight.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/veritylabs/fosight/internal/config"
	"github.com/veritylabs/fosight/internal/db"
	"github.com/veritylabs/fosight/internal/llm"
	"github.com/veritylabs/fosight/internal/service"
)

// store is the slice of the database client the commands depend on. An
// interface so command tests can substitute a fake without a live database.
type store interface {
	service.Store
	service.PrecedentStore
	InitSchema(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient store

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fosight",
	Short: "FOS complaint risk analysis toolkit",
	Long: `Fosight analyses customer complaints against Final Response Letters and
predicts the likely Financial Ombudsman Service outcome using historical
precedent decisions.

The CLI manages the precedent corpus and inspects analysis jobs; the HTTP
server (fosight-server) handles live submissions.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		client, err := db.NewClient(ctx, dbCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		dbClient = client

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// initLLM lazily constructs the embedder and generative model. Only the
// ingest command needs the embedder; report explanation needs the model.
func initLLM(ctx context.Context) error {
	if embedder != nil {
		return nil
	}

	var err error
	embedder, err = llm.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	model, err = llm.NewModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}
	return nil
}

// Execute runs the root command under a context cancelled on SIGINT or
// SIGTERM, so interrupted commands abort in-flight database queries.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
}
