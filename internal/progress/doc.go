// Package progress tracks completion of a batch run and renders it as a
// single status line that is overwritten in place.
//
// A Reporter hands out one Handle per run with Attach. Workers call
// Handle.Advance as items complete; the handle forwards the new state to a
// Sink, but only when the visible bar would change, which bounds output on
// very large inputs. Handle.Close finalizes the display and must run on every
// exit path of the run, typically with defer.
//
// The package never decides what a bar looks like on its own: TerminalSink
// draws one with bubbles/progress behind a line-erase control sequence, and
// callers may plug in any other Sink (a log line, a TUI message, a test
// recorder).
package progress
