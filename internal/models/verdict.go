package models

import (
	"fmt"
	"strings"
)

// Category identifies a disallowed-content category.
type Category string

const (
	CategoryVulgarity           Category = "vulgarity"
	CategoryHateSpeech          Category = "hateSpeech"
	CategorySelfHarm            Category = "selfHarm"
	CategoryExplicitContent     Category = "explicitContent"
	CategoryIllegalInstructions Category = "illegalInstructions"
	CategoryPromptInjection     Category = "promptInjection"
)

// Severity ranks how serious a violation is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Violation is a single disallowed-content finding.
type Violation struct {
	Category    Category `json:"category"`
	Explanation string   `json:"explanation"`
	Severity    Severity `json:"severity"`
}

// SafetyVerdict is the outcome of a safety or injection scan.
// IsSafe is true exactly when Violations is empty.
type SafetyVerdict struct {
	IsSafe     bool        `json:"is_safe"`
	Violations []Violation `json:"violations,omitempty"`
	Summary    string      `json:"summary"`
}

// NewSafetyVerdict builds a verdict from its findings, keeping IsSafe
// consistent with the violation list.
func NewSafetyVerdict(violations []Violation, summary string) SafetyVerdict {
	return SafetyVerdict{
		IsSafe:     len(violations) == 0,
		Violations: violations,
		Summary:    summary,
	}
}

// Merge folds another verdict's findings into this one. The receiver's
// violations are never discarded.
func (v SafetyVerdict) Merge(other SafetyVerdict) SafetyVerdict {
	merged := append(append([]Violation{}, v.Violations...), other.Violations...)

	summary := v.Summary
	if other.Summary != "" {
		if summary != "" {
			summary += "; " + other.Summary
		} else {
			summary = other.Summary
		}
	}

	return NewSafetyVerdict(merged, summary)
}

// Describe returns a short human-readable account of the verdict.
func (v SafetyVerdict) Describe() string {
	if v.IsSafe {
		return "no violations found"
	}

	var parts []string
	for _, viol := range v.Violations {
		parts = append(parts, fmt.Sprintf("%s (%s)", viol.Category, viol.Severity))
	}
	return fmt.Sprintf("%d violation(s): %s", len(v.Violations), strings.Join(parts, ", "))
}
