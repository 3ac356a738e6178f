// Package logging assembles structured slog loggers and formatting helpers used
// across rewind.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and defines the standardized field names so pipeline code tags log
// lines with run IDs, source kinds, and episode coordinates the same way
// everywhere. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
