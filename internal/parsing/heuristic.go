package parsing

import (
	"regexp"
	"strings"
)

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// HeuristicStrategy splits raw text at the blank line nearest the document
// midpoint, falling back to the nearest newline, then the nearest space, then
// the byte midpoint. It never fails for non-empty input: the last-resort
// pipeline guarantee is that some key-ideas/summary pair exists whenever
// generation succeeded.
//
// Splits reconstruct the trimmed input, with one deliberate exception: a
// single unbroken token, or a split that would leave either half empty,
// returns the whole trimmed text as both fields, since no split can satisfy
// reconstruction there.
func HeuristicStrategy(raw string) *Segments {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &Segments{}
	}

	mid := len(trimmed) / 2
	split := -1

	if locs := blankLineRe.FindAllStringIndex(trimmed, -1); len(locs) > 0 {
		split = nearestBoundary(locs, mid)
	}
	if split < 0 {
		split = nearestIndex(trimmed, "\n", mid)
	}
	if split < 0 {
		split = nearestIndex(trimmed, " ", mid)
	}
	if split < 0 {
		// Single unbroken token: the same text serves as both fields.
		return &Segments{First: trimmed, Second: trimmed}
	}

	a := strings.TrimSpace(trimmed[:split])
	b := strings.TrimSpace(trimmed[split:])
	if a == "" || b == "" {
		return &Segments{First: trimmed, Second: trimmed}
	}

	return &Segments{First: a, Second: b}
}

// nearestBoundary picks, among match locations, the start index closest to mid.
func nearestBoundary(locs [][]int, mid int) int {
	best := locs[0][0]
	for _, loc := range locs[1:] {
		if abs(loc[0]-mid) < abs(best-mid) {
			best = loc[0]
		}
	}
	return best
}

// nearestIndex finds the occurrence of sep closest to mid, or -1.
func nearestIndex(s, sep string, mid int) int {
	left := strings.LastIndex(s[:mid], sep)
	right := strings.Index(s[mid:], sep)
	if right >= 0 {
		right += mid
	}

	switch {
	case left < 0:
		return right
	case right < 0:
		return left
	case mid-left <= right-mid:
		return left
	default:
		return right
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
