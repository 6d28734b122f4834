package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInput(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		input   string
		want    []any
		wantErr error
	}{
		{name: "lines", format: FormatLines, input: "a\nb\r\n\nc", want: []any{"a", "b", "", "c"}},
		{name: "default format is lines", format: "", input: "x\n", want: []any{"x"}},
		{name: "empty lines input", format: FormatLines, input: "", want: nil},
		{
			name:   "json array keeps numbers exact",
			format: FormatJSON,
			input:  `[1, "two", null, {"k": 3}]`,
			want:   []any{json.Number("1"), "two", nil, map[string]any{"k": json.Number("3")}},
		},
		{name: "json not an array", format: FormatJSON, input: `{"a": 1}`, wantErr: ErrInvalidInput},
		{name: "json trailing data", format: FormatJSON, input: `[1] [2]`, wantErr: ErrInvalidInput},
		{name: "unknown format", format: "csv", input: "a", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInput(strings.NewReader(tt.input), tt.format)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
