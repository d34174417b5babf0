// Package safety implements the content-safety gate and the prompt-injection
// guard. Both use a two-tier strategy: a fast local pattern scan that always
// runs, and an optional model-backed classification pass whose findings are
// merged in. The local tier is authoritative for recall: its violations are
// never discarded, and a backend failure during the model tier degrades to
// the local-only verdict instead of failing the pipeline.
package safety

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vocalis-dev/vocalis/internal/backend"
	"github.com/vocalis-dev/vocalis/internal/models"
)

// Safety classification calls are kept short and deterministic.
const (
	classifyMaxTokens   = 256
	classifyTemperature = 0.0
)

// Gate scans transcripts for disallowed content. Stateless and reentrant:
// safe to share across concurrent runs.
type Gate struct {
	backend  backend.Backend
	prompt   string
	compiled []compiledCategory
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithBackend supplies the generation backend used for the optional model
// tier. Without one, model scans are skipped.
func WithBackend(b backend.Backend, classificationPrompt string) GateOption {
	return func(g *Gate) {
		g.backend = b
		g.prompt = classificationPrompt
	}
}

// WithExtraPatterns appends caller-supplied pattern sets to the built-ins.
func WithExtraPatterns(sets ...categoryPatterns) GateOption {
	return func(g *Gate) {
		g.compiled = append(g.compiled, compilePatterns(sets)...)
	}
}

// NewGate creates a safety gate with the built-in pattern set.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{compiled: compilePatterns(defaultPatterns)}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Scan checks a transcript for disallowed content. The local pattern scan
// always runs; when useModelScan is true and a backend is configured, a
// single isolated classification call augments the verdict.
func (g *Gate) Scan(ctx context.Context, transcript string, useModelScan bool) models.SafetyVerdict {
	violations := scanPatterns(g.compiled, transcript)

	summary := "pattern scan"
	if useModelScan && g.backend != nil {
		modelViolations, ok := g.modelScan(ctx, transcript)
		if ok {
			violations = append(violations, modelViolations...)
			summary = "pattern and model scan"
		} else {
			// Content safety must never block on backend health.
			summary = "pattern scan only (model scan unavailable)"
		}
	}

	return models.NewSafetyVerdict(violations, summary)
}

// modelScan issues one isolated classification request and parses its
// findings. The bool result is false when the backend call failed.
func (g *Gate) modelScan(ctx context.Context, transcript string) ([]models.Violation, bool) {
	resp, err := g.backend.Generate(ctx, &models.GenerationRequest{
		SystemInstruction: g.prompt,
		UserContent:       transcript,
		MaxTokens:         classifyMaxTokens,
		Temperature:       classifyTemperature,
		Isolated:          true,
	})
	if err != nil {
		slog.Warn("safety model scan failed, degrading to pattern-only verdict", "error", err)
		return nil, false
	}

	return parseClassification(resp.Text), true
}

// parseClassification reads "<category>|<severity>|<explanation>" lines out
// of classifier output. A bare SAFE (or unparseable output) yields no
// findings.
func parseClassification(raw string) []models.Violation {
	var violations []models.Violation

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "SAFE") {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			continue
		}

		category, ok := parseCategory(parts[0])
		if !ok {
			continue
		}

		severity := parseSeverity(parts[1])
		explanation := "flagged by model classification"
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			explanation = strings.TrimSpace(parts[2])
		}

		violations = append(violations, models.Violation{
			Category:    category,
			Severity:    severity,
			Explanation: explanation,
		})
	}

	return violations
}

func parseCategory(s string) (models.Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vulgarity":
		return models.CategoryVulgarity, true
	case "hatespeech", "hate_speech", "hate speech":
		return models.CategoryHateSpeech, true
	case "selfharm", "self_harm", "self harm":
		return models.CategorySelfHarm, true
	case "explicitcontent", "explicit_content", "explicit content":
		return models.CategoryExplicitContent, true
	case "illegalinstructions", "illegal_instructions", "illegal instructions":
		return models.CategoryIllegalInstructions, true
	case "promptinjection", "prompt_injection", "prompt injection":
		return models.CategoryPromptInjection, true
	default:
		return "", false
	}
}

func parseSeverity(s string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return models.SeverityHigh
	case "low":
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}
