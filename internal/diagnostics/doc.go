// Package diagnostics accumulates per-item failure records for a batch run.
//
// A Collector is append-only: records are added with Record and never removed
// or changed. Read operations (Records, Indices, Summary) take a consistent
// snapshot under a read lock, so they are safe to call while workers are
// still recording failures.
//
// Summary groups failures by a normalized form of their message so that an
// operator can tell "the same error 400 times" apart from "400 different
// errors".
package diagnostics
