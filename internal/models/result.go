package models

import "time"

// DimensionScore is the qualitative score for one summary-quality dimension.
type DimensionScore string

const (
	ScoreGood DimensionScore = "good"
	ScoreFair DimensionScore = "fair"
	ScorePoor DimensionScore = "poor"
)

// DimensionNames lists the fixed summary-quality dimensions, in report order.
// Every run that requests the rubric stage produces exactly one record per name.
var DimensionNames = []string{
	"relevance",
	"coverage",
	"coherence",
	"conciseness",
	"faithfulness",
}

// DimensionDescriptions maps each dimension name to what it measures.
var DimensionDescriptions = map[string]string{
	"relevance":    "How well the summary captures what matters in the transcript",
	"coverage":     "Whether all major points of the transcript are represented",
	"coherence":    "Whether the summary reads as a well-organized whole",
	"conciseness":  "Whether the summary avoids redundancy and filler",
	"faithfulness": "Whether the summary stays true to the transcript without invention",
}

// BenchmarkDimension is one scored summary-quality dimension.
type BenchmarkDimension struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Score       DimensionScore `json:"score"`
	Explanation string         `json:"explanation"`
}

// EvaluationResult holds the transcript clarity/language evaluation.
//
// When ParseError is set the numeric fields are meaningless and RawText
// carries the unparsed model output; callers must not display fabricated
// scores in that state.
type EvaluationResult struct {
	ClarityScore      int    `json:"clarity_score"`
	ClarityReasoning  string `json:"clarity_reasoning"`
	LanguageScore     int    `json:"language_score"`
	LanguageReasoning string `json:"language_reasoning"`
	SafetyFlag        bool   `json:"safety_flag"`
	SafetyNotes       string `json:"safety_notes"`
	OverallFeedback   string `json:"overall_feedback"`

	ParseError bool   `json:"parse_error,omitempty"`
	RawText    string `json:"raw_text,omitempty"`
}

// ParseErrorResult builds the distinguished parse-error variant of
// EvaluationResult carrying the raw model output.
func ParseErrorResult(raw string) *EvaluationResult {
	return &EvaluationResult{ParseError: true, RawText: raw}
}

// BenchmarkResult is the terminal aggregate of one pipeline run. It is owned
// exclusively by the run that produced it and is immutable once emitted.
type BenchmarkResult struct {
	RunID      string               `json:"run_id"`
	Transcript string               `json:"transcript"`
	KeyIdeas   string               `json:"key_ideas"`
	Summary    string               `json:"summary"`
	Dimensions []BenchmarkDimension `json:"dimensions,omitempty"`
	Safety     SafetyVerdict        `json:"safety"`
	Evaluation *EvaluationResult    `json:"evaluation,omitempty"`

	RecordingDurationSeconds float64   `json:"recording_duration_seconds,omitempty"`
	ProcessingTimeMs         int64     `json:"processing_time_ms"`
	PromptTokens             int       `json:"prompt_tokens"`
	CompletionTokens         int       `json:"completion_tokens"`
	PromptUsed               string    `json:"prompt_used"`
	ModelID                  string    `json:"model_id,omitempty"`
	CompletedAt              time.Time `json:"completed_at"`
}
