package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerStrategy(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantFirst  string
		wantSecond string
		wantOK     bool
	}{
		{
			name:       "canonical output",
			raw:        "===KEY_IDEAS===\n- point one\n===SUMMARY===\nShort summary.",
			wantFirst:  "- point one",
			wantSecond: "Short summary.",
			wantOK:     true,
		},
		{
			name:       "lowercase markers with spaces",
			raw:        "=== key ideas ===\nfirst part\n=== summary ===\nsecond part",
			wantFirst:  "first part",
			wantSecond: "second part",
			wantOK:     true,
		},
		{
			name:       "markdown heading decoration",
			raw:        "## KEY_IDEAS\nideas here\n## SUMMARY\nsummary here",
			wantFirst:  "ideas here",
			wantSecond: "summary here",
			wantOK:     true,
		},
		{
			name:       "preamble before first marker",
			raw:        "Sure, here you go.\n===KEY_IDEAS===\nideas\n===SUMMARY===\nsummary",
			wantFirst:  "ideas",
			wantSecond: "summary",
			wantOK:     true,
		},
		{
			name:   "missing second marker",
			raw:    "===KEY_IDEAS===\njust ideas, no summary",
			wantOK: false,
		},
		{
			name:   "markers out of order",
			raw:    "===SUMMARY===\nsummary\n===KEY_IDEAS===\nideas",
			wantOK: false,
		},
		{
			name:   "empty segment between markers",
			raw:    "===KEY_IDEAS===\n===SUMMARY===\nsummary only",
			wantOK: false,
		},
		{
			name:   "no markers at all",
			raw:    "plain prose with no structure",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, ok := MarkerStrategy(tt.raw, "===KEY_IDEAS===", "===SUMMARY===")
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantFirst, segs.First)
				assert.Equal(t, tt.wantSecond, segs.Second)
			}
		})
	}
}

func TestMarkerStrategyExactRecovery(t *testing.T) {
	// Both fields come back byte-for-byte modulo trimming.
	raw := "===KEY_IDEAS===\n  - alpha\n  - beta\n\n===SUMMARY===\n  A two-line\nsummary.  "
	segs, ok := MarkerStrategy(raw, "===KEY_IDEAS===", "===SUMMARY===")
	require.True(t, ok)
	assert.Equal(t, "- alpha\n  - beta", segs.First)
	assert.Equal(t, "A two-line\nsummary.", segs.Second)
}

func TestSplitAtMarker(t *testing.T) {
	before, after, ok := SplitAtMarker("rubric lines\n===EVALUATION===\n{\"a\":1}", "===EVALUATION===")
	require.True(t, ok)
	assert.Equal(t, "rubric lines", before)
	assert.Equal(t, "{\"a\":1}", after)

	_, _, ok = SplitAtMarker("no marker here", "===EVALUATION===")
	assert.False(t, ok)

	_, _, ok = SplitAtMarker("===EVALUATION===\nonly after", "===EVALUATION===")
	assert.False(t, ok)
}
