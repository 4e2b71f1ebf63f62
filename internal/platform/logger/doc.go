// Package logger provides structured logging functionality for the application.
//
// It builds on log/slog with JSON output to stdout, optionally fanned out to a
// log file, and carries request-scoped loggers through context.Context.
package logger
