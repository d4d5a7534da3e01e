package logging

import (
	"log/slog"
)

// SetupMCPMode installs a file-only default logger for the stdio MCP server.
// Any stray write to stdout or stderr would corrupt the JSON-RPC stream.
func SetupMCPMode(level, path string) (func(), error) {
	cfg := DefaultConfig()
	cfg.Level = level
	if path != "" {
		cfg.FilePath = path
	}
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	slog.Info("mcp_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return cleanup, nil
}
