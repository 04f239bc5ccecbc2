/*
Package log provides structured logging for karabologd using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

karabologd's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("datalogger")               │          │
	│  │  - WithDeviceID("XFEL/MOTOR/1")              │          │
	│  │  - WithLoggerServerID("karabo/dataLoggerA")  │          │
	│  │  - WithPropertyPath("targetPosition")        │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "datalogger",               │          │
	│  │    "time": "2026-07-30T10:30:00Z",          │          │
	│  │    "message": "flush completed"             │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM INF flush completed component=datalogger │    │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all karabologd packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithDeviceID: Add device ID context
  - WithLoggerServerID: Add logger server ID context
  - WithPropertyPath: Add property path context

# Usage

Initializing the Logger:

	import "github.com/karabo-go/karabologd/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("data logger started")
	log.Debug("checking backend reachability")
	log.Warn("schema write rate approaching budget")
	log.Error("failed to connect to backend")
	log.Fatal("cannot start without loggermap.xml") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("device_id", "XFEL/MOTOR/1").
		Int("batch_size", 128).
		Msg("flush completed")

	log.Logger.Error().
		Err(err).
		Str("logger_server", "karabo/dataLoggerA").
		Msg("flush failed")

Component Loggers:

	// Create component-specific logger
	dlLog := log.WithComponent("datalogger")
	dlLog.Info().Msg("starting event loop")
	dlLog.Debug().Str("device_id", "XFEL/MOTOR/1").Msg("classifying update")

Context Logger Helpers:

	// Device-specific logs
	devLog := log.WithDeviceID("XFEL/MOTOR/1")
	devLog.Info().Msg("device assigned to logger")

	// Logger-server-specific logs
	serverLog := log.WithLoggerServerID("karabo/dataLoggerA")
	serverLog.Info().Msg("data logger started")

	// Property-specific logs
	propLog := log.WithPropertyPath("targetPosition")
	propLog.Warn().Msg("property rate limit exceeded")

# Integration Points

This package integrates with:

  - pkg/manager: Logs device assignment and consistency checks
  - pkg/datalogger: Logs classification, rate limiting and flush outcomes
  - pkg/logreader: Logs query execution and backend reachability
  - pkg/reconciler: Logs staleness detection
  - pkg/backendclient: Logs circuit breaker state transitions

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces

Don't:
  - Log backend credentials or basic-auth secrets
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)
*/
package log
