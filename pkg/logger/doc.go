// Package logger provides a structured logging interface for evalsweep.
//
// It wraps zerolog with a small API:
//   - Leveled logging (Debug, Info, Warn, Error)
//   - Structured fields via WithField/WithFields/WithError
//   - Colorised console output on stderr, optionally mirrored to a file
//   - A global logger instance for the CLI
//   - NewNopLogger and NewTestLogger for tests
//
// Console output is written to stderr because the evaluator child inherits
// stdout and its progress output should not be interleaved with log lines.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.WithField("index", 1000).Info("Checkpoint evaluated")
package logger
