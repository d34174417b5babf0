package parsing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vocalis-dev/vocalis/internal/models"
)

var dimensionPatterns = buildDimensionPatterns()

func buildDimensionPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(models.DimensionNames))
	for _, name := range models.DimensionNames {
		// "<Name>: (Good|Fair|Poor) - <explanation>", case-insensitive,
		// tolerant of dash variants and markdown decoration around the name.
		patterns[name] = regexp.MustCompile(
			`(?im)^[\s*\-#]*` + regexp.QuoteMeta(name) + `\s*[:\-–—]\s*(good|fair|poor)\b\s*[\-–—:]*\s*(.*)$`)
	}
	return patterns
}

// ParseDimensions extracts the five summary-quality dimension records from
// rubric text. Parsing is total: a dimension whose line cannot be found
// yields a "fair" default with an explicit could-not-parse explanation, so
// exactly one record per fixed name is always produced.
func ParseDimensions(raw string) []models.BenchmarkDimension {
	dims := make([]models.BenchmarkDimension, 0, len(models.DimensionNames))

	for _, name := range models.DimensionNames {
		dim := models.BenchmarkDimension{
			Name:        name,
			Description: models.DimensionDescriptions[name],
			Score:       models.ScoreFair,
			Explanation: fmt.Sprintf("Could not parse a %s rating from the model output.", name),
		}

		if m := dimensionPatterns[name].FindStringSubmatch(raw); m != nil {
			dim.Score = models.DimensionScore(strings.ToLower(m[1]))
			if expl := strings.TrimSpace(m[2]); expl != "" {
				dim.Explanation = expl
			}
		}

		dims = append(dims, dim)
	}

	return dims
}
