// Package pagination windows long result listings for CLI output.
//
// Two mutually exclusive modes are supported: offset-based (--limit and
// --offset) and page-based (--page and --page-size). Params validates the
// flags and Window maps them onto a result count; Meta describes the window
// for JSON output.
package pagination
