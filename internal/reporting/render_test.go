package reporting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis/internal/models"
)

func sampleResult() *models.BenchmarkResult {
	return &models.BenchmarkResult{
		RunID:    "run-1",
		KeyIdeas: "- planning\n- review",
		Summary:  "The team plans and reviews its work.",
		Dimensions: []models.BenchmarkDimension{
			{Name: "relevance", Score: models.ScoreGood, Explanation: "on topic"},
			{Name: "coverage", Score: models.ScoreFair, Explanation: "misses one point"},
		},
		Safety: models.NewSafetyVerdict(nil, "no violations found"),
		Evaluation: &models.EvaluationResult{
			ClarityScore:      8,
			ClarityReasoning:  "structured",
			LanguageScore:     7,
			LanguageReasoning: "fluent",
			OverallFeedback:   "well delivered",
		},
		ProcessingTimeMs: 1234,
		PromptTokens:     300,
		CompletionTokens: 80,
		ModelID:          "test-model",
	}
}

func TestFormatResult(t *testing.T) {
	out := FormatResult(sampleResult())

	assert.Contains(t, out, "- planning")
	assert.Contains(t, out, "The team plans and reviews its work.")
	assert.Contains(t, out, "relevance:")
	assert.Contains(t, out, "Clarity:  8/10")
	assert.Contains(t, out, "Language: 7/10")
	assert.Contains(t, out, "Overall:  15/20 (Good)")
	assert.Contains(t, out, "well delivered")
	assert.Contains(t, out, "Model: test-model")
}

func TestFormatResultParseErrorEvaluation(t *testing.T) {
	r := sampleResult()
	r.Evaluation = models.ParseErrorResult("garbage output")

	out := FormatResult(r)
	assert.Contains(t, out, "Evaluation: unavailable")
	assert.NotContains(t, out, "/10", "no numeric scores for an unparseable evaluation")
}

func TestFormatResultWithoutOptionalSections(t *testing.T) {
	r := sampleResult()
	r.Dimensions = nil
	r.Evaluation = nil
	r.ModelID = ""

	out := FormatResult(r)
	assert.NotContains(t, out, "Summary quality:")
	assert.NotContains(t, out, "Clarity:")
	assert.NotContains(t, out, "Model:")
	assert.Contains(t, out, "Processed in 1234ms")
}

func TestFormatBlocked(t *testing.T) {
	verdict := models.NewSafetyVerdict([]models.Violation{{
		Category:    models.CategoryHateSpeech,
		Severity:    models.SeverityHigh,
		Explanation: "dehumanizing language",
	}}, "1 violation(s)")

	out := FormatBlocked(&verdict)
	assert.Contains(t, out, "BLOCKED")
	assert.Contains(t, out, "hateSpeech")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "dehumanizing language")
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sampleResult())
	require.NoError(t, err)

	var decoded models.BenchmarkResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 8, decoded.Evaluation.ClarityScore)
}

func TestStageLabelsCoverEveryStage(t *testing.T) {
	for _, stage := range []models.Stage{
		models.StageTranscribing,
		models.StageSafetyScan,
		models.StageExtracting,
		models.StageEvaluating,
	} {
		assert.NotEmpty(t, StageLabels[stage])
	}
}
