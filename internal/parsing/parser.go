// Package parsing converts free-text model output into structured fields.
// Each strategy is a pure function returning an optional result; strategies
// are composed in priority order with first success winning, and the final
// heuristic layer never fails.
package parsing

// sectionStrategy is one layer of the two-field parsing chain.
type sectionStrategy func(raw string) (*Segments, bool)

// ParseSections recovers a two-field split (e.g. key ideas and summary) from
// raw model output. Marker strategy first, then embedded-JSON extraction,
// then the midpoint heuristic, which always produces a result.
func ParseSections(raw, firstMarker, secondMarker string) Segments {
	chain := []sectionStrategy{
		func(raw string) (*Segments, bool) {
			return MarkerStrategy(raw, firstMarker, secondMarker)
		},
		jsonSectionStrategy,
	}

	for _, strategy := range chain {
		if segs, ok := strategy(raw); ok {
			return *segs
		}
	}

	return *HeuristicStrategy(raw)
}

// jsonSectionStrategy extracts a two-field split from an embedded JSON object
// carrying "key_ideas" and "summary" keys. Both must be non-empty strings.
func jsonSectionStrategy(raw string) (*Segments, bool) {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, false
	}

	first, ok := obj["key_ideas"].(string)
	if !ok || first == "" {
		return nil, false
	}
	second, ok := obj["summary"].(string)
	if !ok || second == "" {
		return nil, false
	}

	return &Segments{First: first, Second: second}, true
}
