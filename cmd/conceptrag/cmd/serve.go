package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/m2ux/concept-rag-sub002/internal/app"
	"github.com/m2ux/concept-rag-sub002/internal/config"
)

func newServeCmd() *cobra.Command {
	var dbPath, cacheDir string
	var useCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, dbPath, cacheDir, useCache)
		},
	}

	cmd.Flags().StringVar(&dbPath, "dbpath", "", "data root directory (required)")
	cmd.Flags().BoolVar(&useCache, "use-cache", true, "enable the in-memory search result cache")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "stage cache directory (default <dbpath>/stage_cache)")
	_ = cmd.MarkFlagRequired("dbpath")

	return cmd
}

func runServe(cmd *cobra.Command, dbPath, cacheDir string, useCache bool) error {
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

	if err := a.MCP.Serve(ctx, "stdio"); err != nil {
		return newStoreError(err)
	}
	return nil
}
