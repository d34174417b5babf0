package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vocalis-dev/vocalis/internal/models"
	"github.com/vocalis-dev/vocalis/internal/scoring"
)

var (
	clarityLineRe  = regexp.MustCompile(`(?im)^[\s*\-#]*clarity(?:\s+score)?\s*[:\-–—]\s*(\d{1,3})(?:\s*/\s*10)?\s*[\-–—:]*\s*(.*)$`)
	languageLineRe = regexp.MustCompile(`(?im)^[\s*\-#]*language(?:\s+score)?\s*[:\-–—]\s*(\d{1,3})(?:\s*/\s*10)?\s*[\-–—:]*\s*(.*)$`)
)

// ParseEvaluation converts raw model output into an EvaluationResult. The
// JSON strategy runs first; when no usable JSON object is present, a
// positional line scan looks for "Clarity: N" and "Language: N" lines. If
// neither strategy yields both scores, the distinguished parse-error variant
// is returned carrying the raw text; scores are never fabricated.
func ParseEvaluation(raw string) *models.EvaluationResult {
	if result, ok := JSONEvaluationStrategy(raw); ok {
		return result
	}

	if result, ok := lineEvaluationStrategy(raw); ok {
		return result
	}

	return models.ParseErrorResult(raw)
}

// lineEvaluationStrategy is the regex fallback: both a clarity line and a
// language line must be present for it to succeed.
func lineEvaluationStrategy(raw string) (*models.EvaluationResult, bool) {
	clarity := clarityLineRe.FindStringSubmatch(raw)
	language := languageLineRe.FindStringSubmatch(raw)
	if clarity == nil || language == nil {
		return nil, false
	}

	clarityScore, err := strconv.Atoi(clarity[1])
	if err != nil {
		return nil, false
	}
	languageScore, err := strconv.Atoi(language[1])
	if err != nil {
		return nil, false
	}

	return &models.EvaluationResult{
		ClarityScore:      scoring.Clamp(clarityScore),
		ClarityReasoning:  strings.TrimSpace(clarity[2]),
		LanguageScore:     scoring.Clamp(languageScore),
		LanguageReasoning: strings.TrimSpace(language[2]),
		OverallFeedback:   strings.TrimSpace(raw),
	}, true
}
