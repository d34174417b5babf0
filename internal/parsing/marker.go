package parsing

import (
	"regexp"
	"strings"
	"sync"
)

// Segments is a two-field split of raw model output.
type Segments struct {
	// First is the text between the two markers (or the first half for the
	// heuristic strategy).
	First string
	// Second is the text after the second marker (or the second half).
	Second string
}

var (
	markerMu    sync.Mutex
	markerCache = map[string]*regexp.Regexp{}
)

// markerPattern compiles a tolerant line pattern for a sentinel marker such
// as "===KEY_IDEAS===": case-insensitive, underscores interchangeable with
// spaces, and any amount of surrounding punctuation or whitespace on the line.
func markerPattern(marker string) *regexp.Regexp {
	markerMu.Lock()
	defer markerMu.Unlock()

	if re, ok := markerCache[marker]; ok {
		return re
	}

	core := strings.Trim(marker, "=#*- \t")
	escaped := regexp.QuoteMeta(core)
	escaped = strings.ReplaceAll(escaped, "_", `[_ ]`)

	re := regexp.MustCompile(`(?im)^[\s=#*:\-]*` + escaped + `[\s=#*:\-]*$`)
	markerCache[marker] = re
	return re
}

// SplitAtMarker splits raw text at a single sentinel marker. Both halves
// must be non-empty after trimming.
func SplitAtMarker(raw, marker string) (before, after string, ok bool) {
	loc := markerPattern(marker).FindStringIndex(raw)
	if loc == nil {
		return "", "", false
	}

	before = strings.TrimSpace(raw[:loc[0]])
	after = strings.TrimSpace(raw[loc[1]:])
	if before == "" || after == "" {
		return "", "", false
	}
	return before, after, true
}

// MarkerStrategy splits raw text at two ordered sentinel markers. It succeeds
// only when both markers are present, the second appears after the first, and
// both resulting segments are non-empty after trimming.
func MarkerStrategy(raw, first, second string) (*Segments, bool) {
	firstLoc := markerPattern(first).FindStringIndex(raw)
	if firstLoc == nil {
		return nil, false
	}

	rest := raw[firstLoc[1]:]
	secondLoc := markerPattern(second).FindStringIndex(rest)
	if secondLoc == nil {
		return nil, false
	}

	a := strings.TrimSpace(rest[:secondLoc[0]])
	b := strings.TrimSpace(rest[secondLoc[1]:])
	if a == "" || b == "" {
		return nil, false
	}

	return &Segments{First: a, Second: b}, true
}
