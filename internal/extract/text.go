package extract

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func hasURL(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "http://") || strings.Contains(lower, "https://") || strings.Contains(lower, "www.")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// normalizeToken drops everything but letters, digits and underscores and
// lowercases the rest.
func normalizeToken(token string) string {
	var b strings.Builder
	for _, r := range token {
		if isWordRune(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func countLettersDigits(s string) (letters, digits int) {
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters, digits
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func runeBefore(s string, i int) (rune, bool) {
	if i <= 0 {
		return 0, false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return r, true
}

func runeAt(s string, i int) (rune, bool) {
	if i >= len(s) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r, true
}

// boundedMatches returns the matches of re whose neighbours satisfy neither
// reject predicate, i.e. matches that stand on their own.
func boundedMatches(re *regexp.Regexp, s string, reject func(rune) bool) [][]int {
	var out [][]int
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if r, ok := runeBefore(s, m[0]); ok && reject(r) {
			continue
		}
		if r, ok := runeAt(s, m[1]); ok && reject(r) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// containsWord reports whether needle occurs in haystack as a whole word.
// Both are expected to be lowercased already.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for from := 0; from < len(haystack); {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		before, hasBefore := runeBefore(haystack, start)
		after, hasAfter := runeAt(haystack, end)
		if (!hasBefore || !isWordRune(before)) && (!hasAfter || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		from = start + size
	}
	return false
}

func sortByLenDesc(items []string) {
	slices.SortStableFunc(items, func(a, b string) int {
		return cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a))
	})
}

// truncateRunes caps s at n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
