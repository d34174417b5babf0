// Package scoring owns the evaluation rubric: valid score ranges, ceiling
// rules, and qualitative labels. It is pure data and lookup, consumed by the
// pipeline to build prompts and by the parser to clamp model output.
package scoring

// Valid range for both the clarity and language axes.
const (
	MinScore = 1
	MaxScore = 10
)

// Clamp forces a parsed score into the valid [MinScore, MaxScore] range.
// Out-of-range model output is clamped rather than rejected.
func Clamp(n int) int {
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}

// CeilingRules are scoring constraints phrased as instructions to the model.
// They cap a score when a specific quality defect is present, to prevent
// score inflation. They are embedded in the evaluation prompt, not applied
// as post-hoc clamping.
var CeilingRules = []string{
	"If the transcript contains noticeable repetition, filler words, or rambling, the clarity score must be 5 or lower.",
	"If the transcript contains grammar errors, the language score must be 5 or lower.",
	"If the transcript has no clear introduction or conclusion, the clarity score must be 6 or lower.",
}

// Label is a qualitative band for the combined clarity+language score.
type Label string

const (
	LabelExcellent        Label = "Excellent"
	LabelGood             Label = "Good"
	LabelAboveAverage     Label = "Above Average"
	LabelAverage          Label = "Average"
	LabelBelowAverage     Label = "Below Average"
	LabelNeedsImprovement Label = "Needs Improvement"
)

// LabelForCombined maps a 0-20 combined score to its qualitative label.
func LabelForCombined(total int) Label {
	switch {
	case total >= 18:
		return LabelExcellent
	case total >= 15:
		return LabelGood
	case total >= 12:
		return LabelAboveAverage
	case total >= 9:
		return LabelAverage
	case total >= 6:
		return LabelBelowAverage
	default:
		return LabelNeedsImprovement
	}
}
