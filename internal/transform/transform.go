// Package transform holds the built-in item transforms offered by the CLI.
//
// Items arrive as decoded JSON values or raw text lines, so every transform
// accepts any and decides for itself which shapes it supports. Anything it
// cannot handle is reported as an item error, never a panic.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rshade/batchkit/internal/batch"
)

// Sentinel errors for transform lookup and construction.
var (
	ErrUnknownTransform = errors.New("unknown transform")
	ErrMissingArg       = errors.New("transform requires --arg")
	ErrInvalidArg       = errors.New("invalid transform argument")
)

// Item errors reported for individual inputs.
var (
	ErrNonNumeric  = errors.New("non-numeric")
	ErrNotText     = errors.New("not a string")
	ErrInvalidJSON = errors.New("invalid JSON")
)

// Func is a transform over decoded items.
type Func = batch.Transform[any, any]

// Spec describes a built-in transform.
type Spec struct {
	Name        string
	Description string
	NeedsArg    bool
	build       func(arg string) (Func, error)
}

// Build constructs the transform with the given argument.
func (s Spec) Build(arg string) (Func, error) {
	if s.NeedsArg && strings.TrimSpace(arg) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingArg, s.Name)
	}
	return s.build(arg)
}

//nolint:gochecknoglobals // Read-only lookup table of built-in transforms.
var builtins = map[string]Spec{
	"divide": {
		Name:        "divide",
		Description: "divide numeric items by --arg",
		NeedsArg:    true,
		build:       buildDivide,
	},
	"parse-int": {
		Name:        "parse-int",
		Description: "parse items as base-10 integers",
		build:       func(string) (Func, error) { return parseInt, nil },
	},
	"parse-float": {
		Name:        "parse-float",
		Description: "parse items as floating point numbers",
		build:       func(string) (Func, error) { return parseFloat, nil },
	},
	"upper": {
		Name:        "upper",
		Description: "upper-case string items",
		build:       func(string) (Func, error) { return upper, nil },
	},
	"json": {
		Name:        "json",
		Description: "decode string items as JSON documents",
		build:       func(string) (Func, error) { return decodeJSON, nil },
	},
}

// Lookup returns the named built-in transform.
func Lookup(name string) (Spec, error) {
	spec, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTransform, name, strings.Join(Names(), ", "))
	}
	return spec, nil
}

// Names returns the built-in transform names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every built-in transform, sorted by name.
func All() []Spec {
	names := Names()
	specs := make([]Spec, len(names))
	for i, name := range names {
		specs[i] = builtins[name]
	}
	return specs
}

func buildDivide(arg string) (Func, error) {
	divisor, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || divisor == 0 || math.IsNaN(divisor) || math.IsInf(divisor, 0) {
		return nil, fmt.Errorf("%w: divisor must be a non-zero number, got %q", ErrInvalidArg, arg)
	}
	return func(_ context.Context, in any) (any, error) {
		n, err := number(in)
		if err != nil {
			return nil, err
		}
		return n / divisor, nil
	}, nil
}

func parseInt(_ context.Context, in any) (any, error) {
	s, err := text(in)
	if err != nil {
		return nil, err
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func parseFloat(_ context.Context, in any) (any, error) {
	s, err := text(in)
	if err != nil {
		return nil, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func upper(_ context.Context, in any) (any, error) {
	s, err := text(in)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func decodeJSON(_ context.Context, in any) (any, error) {
	s, err := text(in)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return v, nil
}

// number coerces JSON numbers and numeric strings to float64.
func number(in any) (float64, error) {
	switch v := in.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrNonNumeric
		}
		return f, nil
	default:
		return 0, ErrNonNumeric
	}
}

func text(in any) (string, error) {
	s, ok := in.(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrNotText, in)
	}
	return s, nil
}
