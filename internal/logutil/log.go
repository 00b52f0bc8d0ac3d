package logutil

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Dev environments get human-readable console
// output, everything else gets JSON on stderr.
func New(appName, env string) zerolog.Logger {
	var logger zerolog.Logger
	if env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.With().Timestamp().Str("app", appName).Logger()
}
