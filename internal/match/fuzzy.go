package match

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// The four similarity primitives all return scores in [0,100]. They are
// Levenshtein based: Ratio is the plain edit-distance ratio, PartialRatio
// anchors the shorter string against every same-length window of the
// longer, TokenSortRatio compares order-insensitively, and TokenSetRatio
// additionally tolerates duplicated or subset token sets.

// Ratio is the exact-character similarity between two strings.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// PartialRatio is the best Ratio of the shorter string against every
// window of the same length in the longer string, making it tolerant of
// one title being embedded in the other.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	if len(ra) == len(rb) {
		return Ratio(string(ra), string(rb))
	}

	short := string(ra)
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		window := string(rb[start : start+len(ra)])
		if score := Ratio(short, window); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the two strings with their tokens sorted, so
// word order does not matter.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares intersection and remainder token joins, keeping
// the maximum. Shared tokens dominate, so duplicated words and subset
// titles still score high.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 100
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range tokensB {
		if _, ok := tokensA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := Ratio(combinedA, combinedB)
	if base != "" {
		if score := Ratio(base, combinedA); score > best {
			best = score
		}
		if score := Ratio(base, combinedB); score > best {
			best = score
		}
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}
