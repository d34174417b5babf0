package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	firstMarker  = "===KEY_IDEAS==="
	secondMarker = "===SUMMARY==="
)

func TestParseSectionsMarkerWins(t *testing.T) {
	raw := "===KEY_IDEAS===\n- point one\n===SUMMARY===\nShort summary."
	segs := ParseSections(raw, firstMarker, secondMarker)
	assert.Equal(t, "- point one", segs.First)
	assert.Equal(t, "Short summary.", segs.Second)
}

func TestParseSectionsJSONFallback(t *testing.T) {
	raw := `The model ignored the markers and returned:
{"key_ideas": "- idea one\n- idea two", "summary": "A short summary."}`

	segs := ParseSections(raw, firstMarker, secondMarker)
	assert.Equal(t, "- idea one\n- idea two", segs.First)
	assert.Equal(t, "A short summary.", segs.Second)
}

func TestParseSectionsHeuristicLastResort(t *testing.T) {
	raw := "Some ideas about the talk.\n\nAnd a concluding summary of it."
	segs := ParseSections(raw, firstMarker, secondMarker)
	require.NotEmpty(t, segs.First)
	require.NotEmpty(t, segs.Second)
}

func TestParseSectionsIdempotent(t *testing.T) {
	inputs := []string{
		"===KEY_IDEAS===\nideas\n===SUMMARY===\nsummary",
		`{"key_ideas": "a", "summary": "b"}`,
		"free text\n\nwith a blank line",
	}

	for _, raw := range inputs {
		first := ParseSections(raw, firstMarker, secondMarker)
		second := ParseSections(raw, firstMarker, secondMarker)
		assert.Equal(t, first, second)
	}
}

func TestParseSectionsPriorityOrder(t *testing.T) {
	// Markers and JSON both present: the marker strategy wins.
	raw := "===KEY_IDEAS===\nmarker ideas\n===SUMMARY===\nmarker summary\n" +
		`{"key_ideas": "json ideas", "summary": "json summary"}`

	segs := ParseSections(raw, firstMarker, secondMarker)
	assert.Equal(t, "marker ideas", segs.First)
	assert.Contains(t, segs.Second, "marker summary")
}
