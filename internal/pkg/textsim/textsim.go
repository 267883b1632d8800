package textsim

import "strings"

// Ratio computes a difflib-style similarity ratio between two strings:
// 2*M / (len(a)+len(b)) where M is the total length of matching blocks.
// Inputs are case-folded and whitespace-normalized first so that trivial
// formatting differences do not defeat duplicate detection.
func Ratio(a, b string) float64 {
	ra := normalize(a)
	rb := normalize(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	matched := matchLen(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// PrefixRatio compares only the first n runes of each string. Retrieval
// dedup uses this: near-duplicate chunks from overlapping windows share a
// long common prefix even when their tails diverge.
func PrefixRatio(a, b string, n int) float64 {
	ra := normalize(a)
	rb := normalize(b)
	if n > 0 {
		if len(ra) > n {
			ra = ra[:n]
		}
		if len(rb) > n {
			rb = rb[:n]
		}
	}
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	matched := matchLen(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

func normalize(s string) []rune {
	return []rune(strings.Join(strings.Fields(strings.ToLower(s)), " "))
}

// matchLen sums the lengths of matching blocks, found by recursively
// splitting around the longest common substring (the difflib strategy,
// minus the junk heuristic which does not pay off on question-sized texts).
func matchLen(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchLen(a[:ai], b[:bi])
	total += matchLen(a[ai+size:], b[bi+size:])
	return total
}

func longestMatch(a, b []rune) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	// j2len[j] = length of the match ending at a[i-1], b[j-1]
	j2len := make(map[int]int, len(b))
	for i := 0; i < len(a); i++ {
		next := make(map[int]int, len(b))
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestA, bestB, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return bestA, bestB, bestSize
}
