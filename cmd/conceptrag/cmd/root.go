// Package cmd provides the CLI commands for conceptrag.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/m2ux/concept-rag-sub002/internal/logging"
	"github.com/m2ux/concept-rag-sub002/pkg/version"
)

// ExitError carries a concrete exit code through cobra's RunE chain:
// 0 success, 1 configuration error, 2 I/O or store error, 3 fatal
// resilience exhaustion. Subcommands return one of
// newConfigError/newStoreError/newResilienceError instead of a bare error
// so main can map it to the right process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func newConfigError(err error) error     { return &ExitError{Code: 1, Err: err} }
func newStoreError(err error) error      { return &ExitError{Code: 2, Err: err} }
func newResilienceError(err error) error { return &ExitError{Code: 3, Err: err} }

var debugMode bool
var loggingCleanup func()

// NewRootCmd constructs the conceptrag root command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "conceptrag",
		Short:   "A hybrid BM25/vector/concept retrieval engine over a document corpus",
		Version: version.Version,
	}
	root.SetVersionTemplate(fmt.Sprintf("%s\n", version.String()))

	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "write debug logs to ~/.conceptrag/logs/")
	root.PersistentPreRunE = setupLogging
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if loggingCleanup != nil {
			loggingCleanup()
		}
		return nil
	}

	root.AddCommand(newSeedCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newStatsCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupLogging wires up a component-tagged logger for the subcommand that
// is actually running, so a shared log file can be filtered by
// component=<name>. The "serve" subcommand runs the MCP tool server over
// stdio, which reserves stdout exclusively for JSON-RPC traffic; it always
// gets logging.SetupMCPMode rather than the stderr-writing default so a
// stray log line can never corrupt the protocol stream.
func setupLogging(cmd *cobra.Command, args []string) error {
	component := cmd.Name()
	if component == "" {
		component = "conceptrag"
	}

	if component == "serve" {
		cleanup, err := logging.SetupMCPMode(component)
		if err != nil {
			return newConfigError(fmt.Errorf("set up logging: %w", err))
		}
		loggingCleanup = cleanup
		return nil
	}

	cfg := logging.DefaultConfig(component)
	if debugMode {
		cfg = logging.DebugConfig(component)
	}
	log, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return newConfigError(fmt.Errorf("set up logging: %w", err))
	}
	loggingCleanup = cleanup
	slog.SetDefault(log)
	return nil
}
