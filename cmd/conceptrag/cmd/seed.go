package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/m2ux/concept-rag-sub002/internal/app"
	"github.com/m2ux/concept-rag-sub002/internal/config"
	"github.com/m2ux/concept-rag-sub002/internal/ingest"
)

func newSeedCmd() *cobra.Command {
	var dbPath, filesDir, cacheDir string
	var overwrite, useCache, clearCache, cacheOnly bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Ingest a directory of documents into the data root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, dbPath, filesDir, cacheDir, overwrite, useCache, clearCache, cacheOnly)
		},
	}

	cmd.Flags().StringVar(&dbPath, "dbpath", "", "data root directory (required)")
	cmd.Flags().StringVar(&filesDir, "filesdir", "", "directory of source documents to ingest (required)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "rebuild every document from scratch instead of incremental gap detection")
	cmd.Flags().BoolVar(&useCache, "use-cache", true, "consult the stage cache before calling the LLM extractor")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "delete all stage cache entries before seeding")
	cmd.Flags().BoolVar(&cacheOnly, "cache-only", false, "fail a document instead of calling the LLM on a stage cache miss")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "stage cache directory (default <dbpath>/stage_cache)")
	_ = cmd.MarkFlagRequired("dbpath")
	_ = cmd.MarkFlagRequired("filesdir")

	return cmd
}

func runSeed(cmd *cobra.Command, dbPath, filesDir, cacheDir string, overwrite, useCache, clearCache, cacheOnly bool) error {
	ctx := cmd.Context()
	log := slog.Default()

	cfg, err := config.Load(dbPath)
	if err != nil {
		return newConfigError(err)
	}

	a, err := app.Open(ctx, cfg, log, app.Options{UseCache: useCache, StageCacheDir: cacheDir})
	if err != nil {
		return newStoreError(err)
	}
	defer a.Close()

	if clearCache {
		removed, err := a.Orchestrator.StageCache().Clear()
		if err != nil {
			return newStoreError(err)
		}
		log.Info("cleared stage cache", slog.Int("removed", removed))
	}

	report, err := a.Orchestrator.Run(ctx, filesDir, ingest.RunOptions{
		Overwrite: overwrite,
		UseCache:  useCache,
		CacheOnly: cacheOnly,
	})
	if err != nil {
		return newStoreError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"seeded %s: %d processed, %d chunks-only, %d concepts-only, %d skipped, %d failed (%s)\n",
		filesDir, report.FullyProcessed, report.ChunksOnly, report.ConceptsOnly, report.Skipped, len(report.Failed), report.Duration)

	if len(report.Failed) == 0 {
		return nil
	}

	for _, f := range report.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %s (%s)\n", f.SourcePath, f.ErrorCode)
	}
	succeeded := report.FullyProcessed + report.ChunksOnly + report.ConceptsOnly
	if succeeded == 0 {
		return newResilienceError(fmt.Errorf("no document succeeded (%d failed)", len(report.Failed)))
	}
	return nil
}
