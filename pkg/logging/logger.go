// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Per-page fetch outcomes (page, watermark, hits, cache_hit)
//   - Buffer state changes (added, duplicates, buffered)
//   - Batch emission (batch_size, buffered)
//   - Pacing waits (kind, delay)
//
// Info: Normal operation events
//   - Run start/end, query exhaustion
//   - Watermark advancement at the page ceiling
//   - Batches delivered to the sink
//
// Warn: Warning conditions that don't prevent operation
//   - Provider faults being retried
//   - Provider error status ending a run
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Transport/decode failures aborting a run
//   - Sink write failures
//   - Configuration errors
//
// Context Fields:
//   - page: zero-based page offset within the current watermark window
//   - watermark: pub_date lower bound scoping the current query
//   - outcome: fetch classification (docs, fault, error, empty)
//   - hits: total result count reported by the provider
//   - buffered: records awaiting emission
//   - batch_size: records in an emitted batch
//   - cache_hit: whether the page was served from Redis
//   - duration: request duration
