package fuzzy

import (
	"sort"
	"strings"
)

// Ratio returns the normalized InDel similarity of a and b.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcsLength(a, b)) / float64(total)
}

// PartialRatio returns the best Ratio between the shorter string and every
// same-length window of the longer string, including windows clipped at
// either edge.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	n := len(short)
	best := 0.0
	consider := func(window []rune) bool {
		if r := ratioRunes(short, window); r > best {
			best = r
		}
		return best == 100
	}

	// Prefix windows shorter than the pattern.
	for end := 1; end < n; end++ {
		if consider(long[:end]) {
			return best
		}
	}
	// Full windows.
	for start := 0; start+n <= len(long); start++ {
		if consider(long[start : start+n]) {
			return best
		}
	}
	// Suffix windows shorter than the pattern.
	for start := len(long) - n + 1; start < len(long); start++ {
		if consider(long[start:]) {
			return best
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their whitespace tokens.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// PartialTokenSetRatio returns 100 when the strings share any token, and
// otherwise the PartialRatio of their sorted token differences.
func PartialTokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			return 100
		}
		onlyA = append(onlyA, tok)
	}
	for tok := range setB {
		onlyB = append(onlyB, tok)
	}
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return PartialRatio(strings.Join(onlyA, " "), strings.Join(onlyB, " "))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// lcsLength computes the longest common subsequence length using a single
// rolling row, O(len(a)*len(b)) time and O(min) space.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) < len(b) {
		a, b = b, a
	}

	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		diag := 0
		for j := 1; j <= len(b); j++ {
			up := row[j]
			if a[i-1] == b[j-1] {
				row[j] = diag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			diag = up
		}
	}
	return row[len(b)]
}
