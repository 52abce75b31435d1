/*
Package log provides structured logging for leech using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers and configurable log levels. The logger
defaults to a no-op instance so that library consumers who never call Init
get silence rather than surprise output.

# Usage

Initializing the logger:

	import "github.com/cuemby/leech/pkg/log"

	// Console output (CLI default)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
		Output:     os.Stderr,
	})

Structured logging:

	log.Logger.Info().
		Str("hash", hash[:7]).
		Int("deltas", len(payload)).
		Msg("Created block")

	log.Logger.Warn().Err(err).Msg("Truncation failed")

Component loggers:

	logger := log.WithComponent("truncate")
	logger.Debug().Str("hash", short(hash)).Msg("Chain walk stopped at missing block")

# Integration Points

This package integrates with:

  - pkg/block: block creation
  - pkg/patch: consolidation progress and fallback warnings
  - pkg/truncate: chain walks and removal decisions (best-effort, warn on failure)
  - pkg/storage: blob writes and pointer reads at debug level

# Best Practices

Do:
  - Use Info level for production
  - Log short hash prefixes (7 chars), never full payloads
  - Use .Err(err) for error objects

Don't:
  - Log row values (table data may be sensitive)
  - Use Debug level in production
*/
package log
