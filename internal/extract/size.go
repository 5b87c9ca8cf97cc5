package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// OneSize is the token used for single-size items.
const OneSize = "ONE SIZE"

const (
	minShoeSize  = 15
	maxShoeSize  = 60
	maxRangeSpan = 20
)

var (
	oneSizeRe     = regexp.MustCompile(`(?i)\bone\s*size\b`)
	sizeRangeRe   = regexp.MustCompile(`(\d{2})\s*[-–]\s*(\d{2})`)
	measurementRe = regexp.MustCompile(`(?i)\d{2,3}(?:[.,]\d+)?\s*(?:см|cm)`)
)

// ExtractSizes returns the first size found and every further distinct size
// in order of appearance.
func (lc *LookupContext) ExtractSizes(lines []string) (string, []string) {
	v := lc.vocab
	var hinted, fallback []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		sizeHint := containsAny(lower, v.SizeHints)
		if !sizeHint && containsAny(lower, v.PriceHints) {
			continue
		}
		if !sizeHint && containsAny(lower, v.SizeExcludeHints) {
			continue
		}
		if sizeHint {
			hinted = append(hinted, line)
		} else {
			fallback = append(fallback, line)
		}
	}

	candidates := hinted
	if len(candidates) == 0 {
		candidates = fallback
	}

	var sizes []string
	seen := make(map[string]bool)
	for _, line := range candidates {
		for _, tok := range v.sizeTokens(line) {
			if !seen[tok] {
				seen[tok] = true
				sizes = append(sizes, tok)
			}
		}
	}
	if len(sizes) == 0 {
		return "", nil
	}
	return sizes[0], sizes[1:]
}

func (v *Vocabulary) sizeTokens(line string) []string {
	var tokens []string
	if oneSizeRe.MatchString(line) {
		tokens = append(tokens, OneSize)
	}

	for _, word := range strings.FieldsFunc(strings.ToUpper(line), func(r rune) bool { return !isWordRune(r) }) {
		if v.alpha[word] {
			tokens = append(tokens, word)
		}
	}

	for _, m := range boundedMatches(sizeRangeRe, line, isWordRune) {
		if followedByCentimeters(line[m[1]:]) {
			continue
		}
		from, _ := strconv.Atoi(line[m[2]:m[3]])
		to, _ := strconv.Atoi(line[m[4]:m[5]])
		if !inShoeRange(float64(from)) || !inShoeRange(float64(to)) {
			continue
		}
		if to < from || to-from > maxRangeSpan {
			continue
		}
		for s := from; s <= to; s++ {
			tokens = append(tokens, strconv.Itoa(s))
		}
	}

	cleaned := line
	measurements := boundedMatches(measurementRe, line, isWordRune)
	for i := len(measurements) - 1; i >= 0; i-- {
		m := measurements[i]
		cleaned = cleaned[:m[0]] + cleaned[m[1]:]
	}
	for _, n := range scanNumbers(cleaned, 2, 3, 1, true, v.sizeUnits) {
		f, ok := toNumber(n.text)
		if !ok || !inShoeRange(f) {
			continue
		}
		tokens = append(tokens, normalizeSizeToken(n.text))
	}
	return tokens
}

func followedByCentimeters(rest string) bool {
	var b strings.Builder
	for i := 0; i < 4 && rest != ""; i++ {
		r, size := utf8.DecodeRuneInString(rest)
		b.WriteRune(r)
		rest = rest[size:]
	}
	after := strings.ToLower(b.String())
	return strings.Contains(after, "см") || strings.Contains(after, "cm")
}

func inShoeRange(f float64) bool {
	return f >= minShoeSize && f <= maxShoeSize
}

func normalizeSizeToken(token string) string {
	return strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(token), ",", "."), ".0")
}
