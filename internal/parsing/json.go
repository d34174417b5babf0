package parsing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/vocalis-dev/vocalis/internal/models"
	"github.com/vocalis-dev/vocalis/internal/scoring"
)

// evaluationSchema requires all evaluation keys to be present. Types are
// deliberately loose: models frequently quote numbers, so coercion happens
// after the presence check.
const evaluationSchema = `{
	"type": "object",
	"required": [
		"clarity_score",
		"clarity_reasoning",
		"language_score",
		"language_reasoning",
		"safety_flag",
		"safety_notes",
		"overall_feedback"
	]
}`

var compiledEvaluationSchema = mustCompileSchema(evaluationSchema)

func mustCompileSchema(raw string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid evaluation schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("evaluation.json", doc); err != nil {
		panic(fmt.Sprintf("failed to add evaluation schema: %v", err))
	}

	schema, err := compiler.Compile("evaluation.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile evaluation schema: %v", err))
	}
	return schema
}

// ExtractJSONObject finds the first balanced JSON object embedded in raw text
// and unmarshals it. The object may be surrounded by prose or code fences.
func ExtractJSONObject(raw string) (map[string]any, bool) {
	start := strings.IndexByte(raw, '{')
	for start >= 0 {
		if end := matchBrace(raw, start); end > start {
			var obj map[string]any
			if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err == nil {
				return obj, true
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			return nil, false
		}
		start += 1 + next
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the object opened at
// start, or -1. String literals and escapes are respected.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// JSONEvaluationStrategy parses the clarity/language evaluation out of raw
// text containing an embedded JSON object. The object must carry every
// required key; numeric scores are coerced from strings or floats and
// clamped into the valid range rather than rejected.
func JSONEvaluationStrategy(raw string) (*models.EvaluationResult, bool) {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, false
	}

	if err := compiledEvaluationSchema.Validate(obj); err != nil {
		return nil, false
	}

	clarity, ok := coerceInt(obj["clarity_score"])
	if !ok {
		return nil, false
	}
	language, ok := coerceInt(obj["language_score"])
	if !ok {
		return nil, false
	}

	return &models.EvaluationResult{
		ClarityScore:      scoring.Clamp(clarity),
		ClarityReasoning:  coerceString(obj["clarity_reasoning"]),
		LanguageScore:     scoring.Clamp(language),
		LanguageReasoning: coerceString(obj["language_reasoning"]),
		SafetyFlag:        coerceBool(obj["safety_flag"]),
		SafetyNotes:       coerceString(obj["safety_notes"]),
		OverallFeedback:   coerceString(obj["overall_feedback"]),
	}, true
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}
