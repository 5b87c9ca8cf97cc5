package extract

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type numberToken struct {
	text       string
	start, end int
}

// scanNumbers finds digit runs of intMin..intMax digits, optionally followed
// by a decimal part of at most fracMax digits. Runs of other lengths are
// ignored as a whole, as are runs with a longer decimal part after a dot. A
// comma before a longer part separates a list ("39,40"). When letters is true,
// numbers glued to a letter (model codes like "PM035") are skipped unless the
// glued letters form one of units ("EU42", "40р").
func scanNumbers(s string, intMin, intMax, fracMax int, letters bool, units map[string]bool) []numberToken {
	var out []numberToken
	for i := 0; i < len(s); {
		if !isDigit(rune(s[i])) {
			i++
			continue
		}
		start := i
		j := i
		for j < len(s) && isDigit(rune(s[j])) {
			j++
		}
		end := j
		i = j
		if j+1 < len(s) && (s[j] == '.' || s[j] == ',') && isDigit(rune(s[j+1])) {
			k := j + 1
			for k < len(s) && isDigit(rune(s[k])) {
				k++
			}
			switch {
			case k-(j+1) <= fracMax:
				end = k
				i = k
			case s[j] == '.':
				// "42.55" is neither 42 nor 55
				i = k
				continue
			}
		}

		if n := j - start; n < intMin || n > intMax {
			continue
		}
		if letters {
			if word, bounded := lettersBefore(s, start); word != "" && !(bounded && units[strings.ToLower(word)]) {
				continue
			}
			if word, bounded := lettersAfter(s, end); word != "" && !(bounded && units[strings.ToLower(word)]) {
				continue
			}
		}
		out = append(out, numberToken{text: s[start:end], start: start, end: end})
	}
	return out
}

// lettersBefore returns the letters directly before i and whether nothing
// word-like precedes them.
func lettersBefore(s string, i int) (string, bool) {
	j := i
	for {
		r, ok := runeBefore(s, j)
		if !ok || !unicode.IsLetter(r) {
			break
		}
		j -= utf8.RuneLen(r)
	}
	r, ok := runeBefore(s, j)
	return s[j:i], !ok || !isWordRune(r)
}

// lettersAfter returns the letters directly after i and whether nothing
// word-like follows them.
func lettersAfter(s string, i int) (string, bool) {
	j := i
	for {
		r, ok := runeAt(s, j)
		if !ok || !unicode.IsLetter(r) {
			break
		}
		j += utf8.RuneLen(r)
	}
	r, ok := runeAt(s, j)
	return s[i:j], !ok || !isWordRune(r)
}

// NormalizeNumber turns "1 500,50" into "1500.50" and "42.0" into "42".
func NormalizeNumber(value string) string {
	text := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(value)
	return strings.TrimSuffix(text, ".0")
}

func toNumber(value string) (float64, bool) {
	f, err := strconv.ParseFloat(NormalizeNumber(value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
