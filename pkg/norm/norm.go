// Package norm provides the normalization and similarity primitives used at
// every comparison boundary in the engine. Statement titles and IPI-style
// identifiers arrive with inconsistent formatting across licensing
// organizations; both operands of any comparison must pass through these
// functions first.
package norm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes characters and removes combining marks, so
// accented titles compare equal to their plain-ASCII statement spellings.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Title normalizes a work or statement title for comparison: diacritics are
// folded, the result is lower-cased, characters outside [a-z0-9 ] are
// stripped, whitespace runs collapse to a single space, and the result is
// trimmed. Title is idempotent.
func Title(s string) string {
	if folded, _, err := transform.String(diacriticStripper, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Identifier normalizes an IPI-style writer or publisher identifier:
// whitespace, hyphens, and dots are stripped, then leading zeros removed.
// Identifiers from different statement sources compare equal only after
// passing through this function. Identifier is idempotent.
func Identifier(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), r == '-', r == '.':
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}

// Similarity returns the Levenshtein similarity of a and b in [0,1], scaled
// as 1 - distance/max(len(a), len(b)). Identical strings score 1; an empty
// string against a non-empty one scores 0.
//
// Callers must normalize both operands (via Title) before calling;
// Similarity itself performs no normalization.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ar, br := []rune(a), []rune(b)
	maxLen := len(ar)
	if len(br) > maxLen {
		maxLen = len(br)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein(ar, br)
	return 1 - float64(dist)/float64(maxLen)
}

// levenshtein computes the classic edit distance with unit-cost
// substitution, insertion, and deletion, using a two-row DP table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
