package batch

import (
	"errors"
	"fmt"
)

// Configuration errors. Each is wrapped together with ErrInvalidConfiguration
// so callers can test for either.
var (
	ErrInvalidConfiguration = errors.New("invalid batch configuration")
	ErrNilTransform         = errors.New("transform cannot be nil")
	ErrInvalidConcurrency   = errors.New("concurrency must be >= 0")
	ErrInvalidChunkSize     = errors.New("chunk size must be between 1 and 1000")
	ErrInvalidMode          = errors.New("mode must be skip or diagnose")
	ErrInvalidCollector     = errors.New("collector element type must match the input type")
)

// ErrItemTimeout is the failure recorded for an item that exceeded the
// per-item timeout.
var ErrItemTimeout = errors.New("item timed out")

// PanicError is the failure recorded for an item whose transform panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("transform panicked: %v", e.Value)
}

func configError(err error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return fmt.Errorf("%w: %w: %s", ErrInvalidConfiguration, err, fmt.Sprintf(format, args...))
}
