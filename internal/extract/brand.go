package extract

import (
	"strings"
)

// ExtractBrand finds the brand from a labelled line, the known brand list or,
// failing both, the first meaningful word of the name.
func (lc *LookupContext) ExtractBrand(lines []string, name string) string {
	v := lc.vocab
	for _, line := range lines {
		if !containsAny(strings.ToLower(line), v.BrandLabels) {
			continue
		}
		m := v.brandLabelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := m[1]
		if i := strings.IndexAny(value, "|,/"); i >= 0 {
			value = value[:i]
		}
		value = strings.TrimSpace(value)
		if n := normalizeToken(value); n != "" && !v.generic[n] {
			return value
		}
	}

	cleaned := v.stripGenericPrefix(name)
	if brand := lc.findBrand(cleaned); brand != "" {
		return brand
	}
	for _, line := range lines {
		if brand := lc.findBrand(line); brand != "" {
			return brand
		}
	}
	if cleaned == "" {
		cleaned = name
	}
	return v.fallbackBrand(cleaned)
}

// findBrand returns the longest known brand that appears in text as a whole
// word.
func (lc *LookupContext) findBrand(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, b := range lc.brands {
		if containsWord(lower, b.folded) {
			return b.display
		}
	}
	return ""
}

func (v *Vocabulary) fallbackBrand(name string) string {
	tokens := strings.Fields(name)
	for _, t := range tokens {
		n := normalizeToken(t)
		if n == "" || v.generic[n] {
			continue
		}
		return strings.Trim(t, ".,;:()[]{}")
	}
	if len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}
