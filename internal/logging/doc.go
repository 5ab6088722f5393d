// Package logging provides structured logging for the relay board.
//
// This package wraps a zap logger with package-level helpers so that the
// connection loop, the snapshot publisher and the CLI share one logger
// without threading it through every constructor.
//
// # Log Levels
//
//   - Debug: raw request buffers, connection open/close, malformed requests
//   - Info: handled requests, relay changes, startup and shutdown
//   - Warn: rejected relay commands, per-connection I/O failures
//   - Error: fatal listener errors, startup failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to RELAYBOARD_LOG_LEVEL; if that is also empty
// the logger is a no-op, which keeps relayctl output clean.
//
// All functions are safe for concurrent use.
package logging
