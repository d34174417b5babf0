package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis/internal/models"
)

func TestParseDimensionsWellFormed(t *testing.T) {
	raw := `Relevance: Good - Captures the core topic.
Coverage: Fair - Misses the closing argument.
Coherence: Good - Flows naturally.
Conciseness: Poor - Repeats itself throughout.
Faithfulness: Good - No invented claims.`

	dims := ParseDimensions(raw)
	require.Len(t, dims, 5)

	byName := map[string]models.BenchmarkDimension{}
	for _, d := range dims {
		byName[d.Name] = d
	}

	assert.Equal(t, models.ScoreGood, byName["relevance"].Score)
	assert.Equal(t, "Captures the core topic.", byName["relevance"].Explanation)
	assert.Equal(t, models.ScoreFair, byName["coverage"].Score)
	assert.Equal(t, models.ScorePoor, byName["conciseness"].Score)
	assert.Equal(t, models.ScoreGood, byName["faithfulness"].Score)
}

func TestParseDimensionsDashVariantsAndCase(t *testing.T) {
	raw := `relevance – GOOD – solid match
COVERAGE: fair — some gaps
- coherence: Poor - disjointed`

	dims := ParseDimensions(raw)
	require.Len(t, dims, 5)

	byName := map[string]models.BenchmarkDimension{}
	for _, d := range dims {
		byName[d.Name] = d
	}

	assert.Equal(t, models.ScoreGood, byName["relevance"].Score)
	assert.Equal(t, models.ScoreFair, byName["coverage"].Score)
	assert.Equal(t, models.ScorePoor, byName["coherence"].Score)
}

func TestParseDimensionsIsTotal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"garbage input", "the model rambled about something else entirely"},
		{"partial input", "relevance: good - fine\nnothing else follows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims := ParseDimensions(tt.raw)
			require.Len(t, dims, 5, "exactly one record per fixed dimension name")

			for i, d := range dims {
				assert.Equal(t, models.DimensionNames[i], d.Name)
				assert.Contains(t, []models.DimensionScore{
					models.ScoreGood, models.ScoreFair, models.ScorePoor,
				}, d.Score)
				assert.NotEmpty(t, d.Explanation)
			}
		})
	}
}

func TestParseDimensionsMissingNameDefaultsToFair(t *testing.T) {
	dims := ParseDimensions("coverage: good - complete")

	for _, d := range dims {
		if d.Name == "coverage" {
			assert.Equal(t, models.ScoreGood, d.Score)
			continue
		}
		assert.Equal(t, models.ScoreFair, d.Score)
		assert.True(t, strings.Contains(d.Explanation, "Could not parse"), "explanation should say parsing failed")
	}
}
