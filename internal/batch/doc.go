// Package batch applies a fallible transform to every item of an input slice
// without letting one bad item abort the rest.
//
// Key properties:
//   - One result slot per input position, in input order, regardless of
//     concurrency (len(Outcome.Results) == len(inputs) always)
//   - An error or panic from the transform is converted into a failure record
//     for that position only; processing continues
//   - Sequential or bounded-parallel execution over a fixed worker pool
//   - Progress is reported through a pluggable sink, never written directly
//   - Context cancellation stops early and leaves untouched positions
//     Unprocessed; it is not an error
//
// Invalid configuration (a nil transform, a negative worker count) is a
// programming error and fails the whole run before any item is touched.
//
// Failed positions are not retried automatically. Outcome.Diagnostics lists
// exactly the failing subset, and Redrive runs a second pass over it.
package batch
