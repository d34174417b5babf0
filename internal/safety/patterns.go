package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vocalis-dev/vocalis/internal/models"
)

// categoryPatterns holds the local pattern tier for one content category.
// Phrases match as case-insensitive substrings; terms match on word
// boundaries so short entries don't fire inside larger words.
type categoryPatterns struct {
	category models.Category
	severity models.Severity
	phrases  []string
	terms    []string
}

// defaultPatterns is the built-in disallowed-content pattern set. The local
// tier is authoritative for recall: model-tier findings are merged in but
// never replace these.
var defaultPatterns = []categoryPatterns{
	{
		category: models.CategoryHateSpeech,
		severity: models.SeverityHigh,
		phrases: []string{
			"go back to your country",
			"all of them should die",
			"deserve to be exterminated",
			"are subhuman",
			"racial purity",
			"master race",
		},
		terms: []string{"subhuman", "untermensch"},
	},
	{
		category: models.CategorySelfHarm,
		severity: models.SeverityHigh,
		phrases: []string{
			"kill myself",
			"end my life",
			"want to die",
			"hurt myself",
			"ways to commit suicide",
		},
	},
	{
		category: models.CategoryIllegalInstructions,
		severity: models.SeverityHigh,
		phrases: []string{
			"how to make a bomb",
			"how to build a bomb",
			"synthesize methamphetamine",
			"how to pick a lock to break in",
			"launder money",
		},
	},
	{
		category: models.CategoryExplicitContent,
		severity: models.SeverityMedium,
		phrases: []string{
			"explicit sexual",
			"hardcore pornography",
		},
		terms: []string{"pornographic"},
	},
	{
		category: models.CategoryVulgarity,
		severity: models.SeverityLow,
		terms:    []string{"fuck", "fucking", "shit", "bullshit", "asshole", "bitch"},
	},
}

type compiledCategory struct {
	category models.Category
	severity models.Severity
	phrases  []string
	terms    *regexp.Regexp
}

func compilePatterns(sets []categoryPatterns) []compiledCategory {
	compiled := make([]compiledCategory, 0, len(sets))
	for _, set := range sets {
		c := compiledCategory{
			category: set.category,
			severity: set.severity,
		}
		for _, p := range set.phrases {
			c.phrases = append(c.phrases, strings.ToLower(p))
		}
		if len(set.terms) > 0 {
			escaped := make([]string, 0, len(set.terms))
			for _, t := range set.terms {
				escaped = append(escaped, regexp.QuoteMeta(t))
			}
			c.terms = regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
		}
		compiled = append(compiled, c)
	}
	return compiled
}

// scanPatterns runs the local tier over a transcript. It performs no I/O and
// is fast enough to run on every transcript regardless of backend health.
func scanPatterns(compiled []compiledCategory, transcript string) []models.Violation {
	lower := strings.ToLower(transcript)

	var violations []models.Violation
	for _, c := range compiled {
		matched := ""
		for _, phrase := range c.phrases {
			if strings.Contains(lower, phrase) {
				matched = phrase
				break
			}
		}
		if matched == "" && c.terms != nil {
			matched = strings.ToLower(c.terms.FindString(transcript))
		}
		if matched != "" {
			violations = append(violations, models.Violation{
				Category:    c.category,
				Severity:    c.severity,
				Explanation: fmt.Sprintf("transcript contains disallowed content matching %q", matched),
			})
		}
	}
	return violations
}
