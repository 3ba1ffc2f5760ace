package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP server mode.
// This is critical for MCP protocol compliance:
// - Logs ONLY to file (never stdout/stderr)
// - Uses JSON format for structured logs
// - Always enables debug level for complete diagnostics
//
// MCP protocol requires stdout to be used EXCLUSIVELY for JSON-RPC.
// Any writes to stdout/stderr before or during MCP operation will corrupt
// the protocol stream and cause "Failed to connect" errors. component tags
// the resulting records (see Config.Component); the serve subcommand
// passes "serve".
func SetupMCPMode(component string) (func(), error) {
	return SetupMCPModeWithLevel("debug", component)
}

// SetupMCPModeWithLevel initializes MCP-safe logging with a specific level.
func SetupMCPModeWithLevel(level, component string) (func(), error) {
	cfg := DebugConfig(component)
	cfg.Level = level
	cfg.WriteToStderr = false // CRITICAL: never write to stderr in MCP mode

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)

	slog.Info("MCP mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level),
		slog.Bool("stderr_disabled", true))

	return cleanup, nil
}
