package cli

import "errors"

// Process exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitItemFailures = 2
)

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrItemFailures):
		return ExitItemFailures
	default:
		return ExitError
	}
}
