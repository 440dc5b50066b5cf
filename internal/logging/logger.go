package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithCommand returns a logger with command-resolution context attached.
// Use this for all logging within a single process-command turn.
func WithCommand(requestID, threadID string) *slog.Logger {
	return slog.With(
		"request_id", requestID,
		"thread_id", threadID,
	)
}

// WithTool returns a logger scoped to one tool invocation within a turn.
func WithTool(logger *slog.Logger, toolName string) *slog.Logger {
	return logger.With("tool", toolName)
}
