package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/m2ux/concept-rag-sub002/internal/app"
	"github.com/m2ux/concept-rag-sub002/internal/config"
)

func newStatsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and resilience status for a data root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "dbpath", "", "data root directory (required)")
	_ = cmd.MarkFlagRequired("dbpath")

	return cmd
}

func runStats(cmd *cobra.Command, dbPath string) error {
	ctx := cmd.Context()
	log := slog.Default()

	cfg, err := config.Load(dbPath)
	if err != nil {
		return newConfigError(err)
	}

	a, err := app.Open(ctx, cfg, log, app.Options{UseCache: true})
	if err != nil {
		return newStoreError(err)
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "data root: %s\n", cfg.DataRoot)
	fmt.Fprintf(out, "catalog:   %d documents\n", a.Catalog.Count())
	fmt.Fprintf(out, "chunks:    %d passages\n", a.Chunks.Count())
	fmt.Fprintf(out, "concepts:  %d distinct concepts\n", a.Concepts.Count())
	fmt.Fprintf(out, "categories: %d\n", a.Categories.Count())
	fmt.Fprintf(out, "embedder:  %s (%d dims, available=%v)\n", a.Embedder.ModelName(), a.Embedder.Dimensions(), a.Embedder.Available(ctx))
	fmt.Fprintf(out, "llm breaker:   %s\n", a.Orchestrator.LLMBreakerState())
	fmt.Fprintf(out, "embed breaker: %s\n", a.Orchestrator.EmbedBreakerState())

	return nil
}
