/*
PURPOSE:
  Provides a structured logger for Chart Runner.
  Wraps slog for consistent output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy. Batch runs can take hours, so
    per-image progress lines must stay greppable.

  Implementation-discovered:
  - Needs Info/Warn/Error levels plus a debug switch for the HTTP client.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - N/A

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).

USAGE:
  output.Logger.Info("message", "key", "value")

RELATED FILES:
  - All.

MAINTENANCE:
  - None.
*/

package output

import (
	"log/slog"
	"os"
)

var Logger *slog.Logger

func init() {
	Configure(false)
}

// Configure installs the process logger. verbose lowers the level to Debug
// so the engine's request/response logging becomes visible.
func Configure(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetLogger allows overriding the default logger (e.g. for testing)
func SetLogger(l *slog.Logger) {
	Logger = l
}
