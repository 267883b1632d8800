package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// Spans where fewer letters than this appear among non-space characters are
// treated as tables, formula dumps or extraction garbage.
const minAlphaRatio = 0.45

var (
	headingOnlyRe = regexp.MustCompile(`(?i)^(chapter|unit|section|module|part|lecture|week|topic)\s+[0-9ivxlc]+[\s.:–-]*\S{0,40}$`)
	dotLeaderRe   = regexp.MustCompile(`\.{4,}\s*\d+`)
	boilerplateRe = regexp.MustCompile(`(?i)(copyright|©|\(c\)\s+\d{4}|all rights reserved|isbn[\s:-]|published by|printed in|editor[\s:]|publisher|\bedition\b.*\b(pearson|wiley|mcgraw|springer|elsevier|oxford|cambridge)\b)`)
)

// IsNoise flags spans that carry no teachable content: bare headings, table
// of contents fragments and text that is mostly symbols or digits.
func IsNoise(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return true
	}
	if alphaRatio(trimmed) < minAlphaRatio {
		return true
	}
	if len(trimmed) < 120 && headingOnlyRe.MatchString(trimmed) {
		return true
	}
	if strings.Contains(strings.ToLower(trimmed), "table of contents") {
		return true
	}
	if len(dotLeaderRe.FindAllStringIndex(trimmed, 3)) >= 2 {
		return true
	}
	return false
}

// stripBoilerplate removes publisher credit lines before chunking so they
// never reach retrieval.
func stripBoilerplate(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if boilerplateRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func alphaRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
