package pagination

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

// Validation limits.
const (
	MaxLimit    = 100000
	MaxPageSize = 10000
)

// Validation errors.
var (
	ErrInvalidLimit         = fmt.Errorf("limit must be between 0 and %d", MaxLimit)
	ErrInvalidPageSize      = fmt.Errorf("page-size must be between 1 and %d", MaxPageSize)
	ErrInvalidOffset        = errors.New("offset must be non-negative")
	ErrInvalidPage          = errors.New("page must be >= 1")
	ErrMixedPaginationModes = errors.New("cannot use both offset-based (--offset) and page-based (--page) pagination")
	ErrPageSizeWithoutPage  = errors.New("--page-size requires --page to be set")
)

// Params holds the pagination flags of a listing command.
// Page 0 means page-based mode is inactive; Limit 0 means no limit.
type Params struct {
	Limit    int
	Offset   int
	Page     int
	PageSize int
}

// AddFlags registers --limit, --offset, --page and --page-size on fs.
func (p *Params) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&p.Limit, "limit", 0, "maximum number of results to print (0 = all)")
	fs.IntVar(&p.Offset, "offset", 0, "number of results to skip")
	fs.IntVar(&p.Page, "page", 0, "1-based page of results to print (requires --page-size)")
	fs.IntVar(&p.PageSize, "page-size", 0, "results per page")
}

// Validate checks bounds and mode consistency.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidOffset, p.Offset)
	}
	if p.Page < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, p.Page)
	}
	if p.Page > 0 && p.Offset > 0 {
		return ErrMixedPaginationModes
	}
	if p.Page == 0 && p.PageSize > 0 {
		return ErrPageSizeWithoutPage
	}
	if p.Page > 0 && (p.PageSize < 1 || p.PageSize > MaxPageSize) {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	return nil
}

// IsPageBased reports whether page-based pagination is active.
func (p Params) IsPageBased() bool {
	return p.Page > 0
}

// IsEnabled reports whether any pagination flag narrows the output.
func (p Params) IsEnabled() bool {
	return p.Limit > 0 || p.Offset > 0 || p.Page > 0
}

// Window returns the half-open range [start, end) of total results to show.
// A page past the end is clamped to the last page; an offset past the end
// yields an empty window.
func (p Params) Window(total int) (start, end int) { //nolint:nonamedreturns // Range bounds.
	if total <= 0 {
		return 0, 0
	}

	if p.IsPageBased() {
		start = (p.Page - 1) * p.PageSize
		if start >= total {
			start = ((total - 1) / p.PageSize) * p.PageSize
		}
		end = start + p.PageSize
		if p.Limit > 0 {
			end = start + min(p.Limit, p.PageSize)
		}
		return start, min(end, total)
	}

	if p.Offset >= total {
		return total, total
	}
	start = p.Offset
	end = total
	if p.Limit > 0 {
		end = min(start+p.Limit, total)
	}
	return start, end
}
