package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Input formats accepted by --format.
const (
	FormatLines = "lines"
	FormatJSON  = "json"
)

// maxLineSize bounds a single input line.
const maxLineSize = 16 << 20

// ErrInvalidInput is wrapped when the input file cannot be decoded as a whole.
var ErrInvalidInput = errors.New("invalid input")

// readInputFile loads the items in path, or stdin when path is "-".
func readInputFile(cmd *cobra.Command, path, format string) ([]any, error) {
	if path == "-" {
		return readInput(cmd.InOrStdin(), format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	items, err := readInput(f, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return items, nil
}

// readInput decodes items from r. In lines format every line is one string
// item; in json format r must hold a single array whose elements are the items.
func readInput(r io.Reader, format string) ([]any, error) {
	switch strings.ToLower(format) {
	case FormatLines, "":
		return readLines(r)
	case FormatJSON:
		return readJSONArray(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (use lines or json)", ErrInvalidInput, format)
	}
}

func readLines(r io.Reader) ([]any, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var items []any
	for scanner.Scan() {
		items = append(items, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func readJSONArray(r io.Reader) ([]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array: %w", ErrInvalidInput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after the JSON array", ErrInvalidInput)
	}
	return items, nil
}
