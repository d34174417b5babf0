// Package reporting renders pipeline results for the CLI: a human-readable
// text report and a machine-readable JSON form.
package reporting

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vocalis-dev/vocalis/internal/models"
	"github.com/vocalis-dev/vocalis/internal/scoring"
)

// StageLabels maps pipeline stages to the labels shown while a run progresses.
var StageLabels = map[models.Stage]string{
	models.StageTranscribing: "Reading transcript",
	models.StageSafetyScan:   "Scanning for safety issues",
	models.StageExtracting:   "Extracting key ideas and summarizing",
	models.StageEvaluating:   "Evaluating summary and transcript",
}

// FormatResult renders a completed benchmark result as a text report.
func FormatResult(r *models.BenchmarkResult) string {
	var sb strings.Builder

	sb.WriteString("════════════════════════════════════════\n")
	sb.WriteString("EVALUATION RESULT\n")
	sb.WriteString("════════════════════════════════════════\n\n")

	sb.WriteString("Key ideas:\n")
	sb.WriteString(indent(r.KeyIdeas) + "\n\n")
	sb.WriteString("Summary:\n")
	sb.WriteString(indent(r.Summary) + "\n\n")

	if len(r.Dimensions) > 0 {
		sb.WriteString("Summary quality:\n")
		for _, dim := range r.Dimensions {
			sb.WriteString(fmt.Sprintf("  %-13s %-5s %s\n", dim.Name+":", dim.Score, dim.Explanation))
		}
		sb.WriteString("\n")
	}

	if r.Evaluation != nil {
		sb.WriteString(formatEvaluation(r.Evaluation))
	}

	sb.WriteString(fmt.Sprintf("Processed in %dms (%d prompt + %d completion tokens)\n",
		r.ProcessingTimeMs, r.PromptTokens, r.CompletionTokens))
	if r.ModelID != "" {
		sb.WriteString("Model: " + r.ModelID + "\n")
	}

	return sb.String()
}

func formatEvaluation(e *models.EvaluationResult) string {
	if e.ParseError {
		return "Evaluation: unavailable (model output could not be parsed)\n\n"
	}

	var sb strings.Builder
	combined := e.ClarityScore + e.LanguageScore
	sb.WriteString(fmt.Sprintf("Clarity:  %d/10  %s\n", e.ClarityScore, e.ClarityReasoning))
	sb.WriteString(fmt.Sprintf("Language: %d/10  %s\n", e.LanguageScore, e.LanguageReasoning))
	sb.WriteString(fmt.Sprintf("Overall:  %d/20 (%s)\n", combined, scoring.LabelForCombined(combined)))
	if e.OverallFeedback != "" {
		sb.WriteString("Feedback: " + e.OverallFeedback + "\n")
	}
	if e.SafetyFlag {
		sb.WriteString("Safety note: " + e.SafetyNotes + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// FormatBlocked renders a safety-blocked outcome. Nothing derived after the
// safety stage is ever shown for a blocked run.
func FormatBlocked(v *models.SafetyVerdict) string {
	var sb strings.Builder
	sb.WriteString("BLOCKED: transcript failed the safety scan\n\n")
	for _, viol := range v.Violations {
		sb.WriteString(fmt.Sprintf("  [%s] %s: %s\n", viol.Severity, viol.Category, viol.Explanation))
	}
	return sb.String()
}

// FormatJSON renders a result as indented JSON.
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
