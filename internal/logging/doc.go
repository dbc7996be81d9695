// Package logging assembles structured slog loggers and formatting helpers used
// across Quill.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so session actions automatically
// tag log lines with session ids, work ids, action names, and correlation ids.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
