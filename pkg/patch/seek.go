package patch

import (
	"strings"
	"unicode"
)

const (
	fuzzExact      = 0
	fuzzTrimRight  = 1
	fuzzTrimSpace  = 100
	fuzzAnchorTrim = 1

	// eofFallbackPenalty is added when an end-of-file section only matched further up
	// the file, so a tail match always ranks ahead of it.
	eofFallbackPenalty = 10000
)

type lineComparer func(a, b string) bool

var matchPasses = []struct {
	equal lineComparer
	fuzz  int
}{
	{equal: equalExact, fuzz: fuzzExact},
	{equal: equalTrimRight, fuzz: fuzzTrimRight},
	{equal: equalTrimSpace, fuzz: fuzzTrimSpace},
}

func equalExact(a, b string) bool { return a == b }

func equalTrimRight(a, b string) bool {
	return strings.TrimRightFunc(a, unicode.IsSpace) == strings.TrimRightFunc(b, unicode.IsSpace)
}

func equalTrimSpace(a, b string) bool { return strings.TrimSpace(a) == strings.TrimSpace(b) }

// findContext locates context inside lines at or after start. It returns the match
// index and the fuzz that was needed, or -1 when no pass matched.
func findContext(lines, context []string, start int, eof bool) (int, int) {
	if eof {
		tail := len(lines) - len(context)
		if index, fuzz := findContextCore(lines, context, tail); index != -1 {
			return index, fuzz
		}
		// A newline-terminated file splits into a trailing empty line.
		if n := len(lines); n > 0 && lines[n-1] == "" {
			if index, fuzz := findContextCore(lines[:n-1], context, tail-1); index != -1 {
				return index, fuzz
			}
		}
		index, fuzz := findContextCore(lines, context, start)
		if index == -1 {
			return -1, 0
		}
		return index, fuzz + eofFallbackPenalty
	}
	return findContextCore(lines, context, start)
}

func findContextCore(lines, context []string, start int) (int, int) {
	if start < 0 {
		start = 0
	}
	if len(context) == 0 {
		return start, fuzzExact
	}
	for _, pass := range matchPasses {
		if index := findSubsequence(lines, context, start, pass.equal); index != -1 {
			return index, pass.fuzz
		}
	}
	return -1, 0
}

func findSubsequence(haystack, needle []string, start int, equal lineComparer) int {
	for i := start; i+len(needle) <= len(haystack); i++ {
		matched := true
		for j := range needle {
			if !equal(haystack[i+j], needle[j]) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

// seekAnchor looks for the literal text of an "@@ <anchor>" header at or after start.
// It returns the index just past the anchor line and the fuzz incurred, or start and
// zero when the anchor is absent.
func seekAnchor(lines []string, anchor string, start int) (int, int) {
	if strings.TrimSpace(anchor) == "" {
		return start, 0
	}
	for i := start; i < len(lines); i++ {
		if lines[i] == anchor {
			return i + 1, fuzzExact
		}
	}
	trimmed := strings.TrimSpace(anchor)
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == trimmed {
			return i + 1, fuzzAnchorTrim
		}
	}
	return start, 0
}
