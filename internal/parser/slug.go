package parser

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases s, strips diacritics, and joins runs of letters and digits
// with single hyphens. The result is URL-safe and may be empty.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// IsSlug reports whether s is already in canonical slug form.
func IsSlug(s string) bool {
	return s != "" && Slugify(s) == s
}

// Anchors returns a stable identifier for each heading text. Collisions within
// one sequence get a numeric suffix; the first occurrence stays unsuffixed.
func Anchors(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, len(texts))
	for i, t := range texts {
		base := Slugify(t)
		if base == "" {
			base = "section"
		}
		id := base
		for n := 1; ; n++ {
			if _, dup := seen[id]; !dup {
				break
			}
			id = base + "-" + strconv.Itoa(n)
		}
		seen[id] = struct{}{}
		out[i] = id
	}
	return out
}
