// Package search filters, scores, sorts, paginates and highlights index
// documents for one query. All functions are pure and safe for concurrent use
// against a shared artifact.
package search

import (
	"strings"
	"unicode"
)

// Tokenize splits q on whitespace into lowercase, de-duplicated tokens in
// first-seen order.
func Tokenize(q string) []string {
	fields := strings.Fields(q)
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tok := string(fold(f))
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// fold lowercases s rune by rune, so indexes into the result line up with
// indexes into []rune(s).
func fold(s string) []rune {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return r
}

// indexRunes returns the first rune offset of needle in hay at or after from, or -1.
func indexRunes(hay, needle []rune, from int) int {
	n := len(needle)
	if n == 0 {
		return -1
	}
outer:
	for i := from; i+n <= len(hay); i++ {
		for j := 0; j < n; j++ {
			if hay[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
