// Package logging sets up the process-wide zerolog logger used by every
// component. Output goes to stderr, console-formatted, so the terminal
// Display can own stdout/the alt-screen without interleaving.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init configures the global zerolog logger and returns a root logger.
// verbose raises the level to debug; otherwise info.
func Init(verbose bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger
}

// For creates a child logger tagged with the given component name, the
// structured-logging analogue of the original's create_logger(sender).
func For(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
