package prompts

import (
	"fmt"
	"strings"

	"github.com/vocalis-dev/vocalis/internal/scoring"
)

// ExtractionInstruction returns the system instruction for the merged
// key-ideas + summary generation call.
func (s Set) ExtractionInstruction() string {
	return s.KeyIdeasAndSummary
}

// AssessmentInstruction returns the system instruction for the merged
// rubric + evaluation generation call. When both sub-tasks are enabled the
// two outputs are separated by EvaluationMarker; with a single sub-task the
// instruction covers just that one.
//
// At least one of rubric, evaluation must be true.
func (s Set) AssessmentInstruction(summary string, rubric, evaluation bool) string {
	rules := "- " + strings.Join(scoring.CeilingRules, "\n- ")

	switch {
	case rubric && evaluation:
		return fmt.Sprintf("%s\n\nAfter the dimension lines, on a line by itself, write the marker %s\nThen continue with the second task below.\n\n%s",
			fmt.Sprintf(s.Rubric, summary),
			EvaluationMarker,
			fmt.Sprintf(s.Evaluation, rules))
	case rubric:
		return fmt.Sprintf(s.Rubric, summary)
	default:
		return fmt.Sprintf(s.Evaluation, rules)
	}
}
