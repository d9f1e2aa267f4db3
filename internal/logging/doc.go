// Package logging constructs the slog loggers used across backlog.
// Two output formats are supported: a compact console format for
// interactive use and JSON for machine consumption. Output can be
// duplicated to a log file under the configured log directory.
package logging
