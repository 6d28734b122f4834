// Package logging wires zerolog for batchkit.
//
// Loggers travel through context.Context: the CLI attaches a configured logger
// with logger.WithContext, and library code retrieves it with FromContext. A
// context without a logger yields a disabled logger, so the core packages can
// log unconditionally.
//
// Every run is tagged with a run ID (a ULID) so that the start, failure, and
// finish events of one batch can be correlated in aggregated logs.
package logging
