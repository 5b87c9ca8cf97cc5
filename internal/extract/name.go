package extract

import (
	"strings"
	"unicode/utf8"
)

const nameHeadLines = 3

// ExtractName picks the product title out of the lines. It returns "" when no
// line is a convincing candidate.
func (lc *LookupContext) ExtractName(lines []string) string {
	v := lc.vocab

	for _, line := range lines {
		if m := v.nameLabelRe.FindStringSubmatch(line); m != nil {
			if name := v.cleanName(m[1]); name != "" {
				return name
			}
		}
	}
	if v.arrivalRe != nil {
		for _, line := range lines {
			if m := v.arrivalRe.FindStringSubmatch(line); m != nil {
				if name := v.cleanName(m[1]); name != "" {
					return name
				}
			}
		}
	}
	if v.announceRe != nil {
		for _, line := range lines {
			if m := v.announceRe.FindStringSubmatch(line); m != nil {
				if name := v.cleanName(m[1]); name != "" {
					return name
				}
			}
		}
	}

	for i, line := range lines {
		if i == nameHeadLines {
			break
		}
		if !v.looksLikeName(line) {
			continue
		}
		name := v.cleanName(line)
		if name != "" && (len(strings.Fields(name)) >= 2 || hasDigit(name)) {
			return name
		}
	}

	best, bestScore := "", 0.0
	for i, line := range lines {
		if !v.looksLikeName(line) {
			continue
		}
		name := v.cleanName(line)
		if name == "" {
			continue
		}
		score := scoreName(name) - float64(min(i, 10))*0.02
		if strings.HasSuffix(name, ".") && len(strings.Fields(name)) > 4 {
			score -= 0.2
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}

func scoreName(line string) float64 {
	letters, _ := countLettersDigits(line)
	score := min(float64(letters)/float64(max(utf8.RuneCountInString(line), 1)), 1) * 0.6
	if words := len(strings.Fields(line)); words >= 2 && words <= 8 {
		score += 0.25
	}
	if hasDigit(line) {
		score += 0.05
	}
	return score
}

func (v *Vocabulary) looksLikeName(line string) bool {
	if n := utf8.RuneCountInString(line); n < 3 || n > 120 {
		return false
	}
	lower := strings.ToLower(line)
	if containsAny(lower, v.nonName) || containsAny(lower, v.NameExcludeHints) {
		return false
	}
	if hasURL(line) || strings.Contains(line, "@") {
		return false
	}
	letters, digits := countLettersDigits(line)
	switch {
	case letters < 2:
		return false
	case letters < 3 && digits == 0:
		return false
	case digits > letters*2:
		return false
	}
	return true
}

func (v *Vocabulary) cleanName(value string) string {
	text := strings.Trim(value, " \t-|:;")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = v.priceTailRe.ReplaceAllString(text, "")
	if stripped := v.stripGenericPrefix(text); stripped != "" {
		text = stripped
	}
	return strings.TrimSpace(text)
}

// stripGenericPrefix drops leading gender/category words ("Чоловічі
// кросівки Nike ..." becomes "Nike ..."). The text is returned unchanged
// when every token is generic.
func (v *Vocabulary) stripGenericPrefix(text string) string {
	tokens := strings.Fields(text)
	idx := 0
	for _, t := range tokens {
		n := normalizeToken(t)
		if n != "" && !v.generic[n] {
			break
		}
		idx++
	}
	if idx > 0 && idx < len(tokens) {
		return strings.Join(tokens[idx:], " ")
	}
	return text
}
