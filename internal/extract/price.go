package extract

import (
	"regexp"
	"strings"
)

const minPlainPrice = 100

var groupedNumberRe = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}]\d{3})+(?:[.,]\d{1,2})?`)

// ExtractPrice looks for the selling price. Lines that mention a price come
// first, then numbers followed by a currency, then the largest standalone
// number of at least 100. The last step skips the line name was taken from:
// digits in "Puma 180 Grey White" are a model number.
func (lc *LookupContext) ExtractPrice(lines []string, name string) string {
	v := lc.vocab

	for _, line := range lines {
		lower := strings.ToLower(line)
		if hasURL(line) || containsAny(lower, v.PriceExcludeHints) || !containsAny(lower, v.PriceHints) {
			continue
		}
		if price := v.priceFromLine(line, true, false); price != "" {
			return price
		}
	}

	for _, line := range lines {
		lower := strings.ToLower(line)
		if hasURL(line) || containsAny(lower, v.PriceExcludeHints) {
			continue
		}
		if price := v.priceFromLine(line, false, true); price != "" {
			return price
		}
	}

	nameLine := -1
	if name != "" {
		for i, line := range lines {
			if strings.Contains(line, name) {
				nameLine = i
				break
			}
		}
	}

	best, bestValue := "", 0.0
	for i, line := range lines {
		lower := strings.ToLower(line)
		if i == nameLine ||
			hasURL(line) ||
			containsAny(lower, v.PriceExcludeHints) ||
			containsAny(lower, v.ContactHints) ||
			containsAny(lower, v.SizeHints) {
			continue
		}
		for _, tok := range standalonePrices(line) {
			f, ok := toNumber(tok)
			if !ok || f < minPlainPrice {
				continue
			}
			if best == "" || f > bestValue {
				best, bestValue = NormalizeNumber(tok), f
			}
		}
	}
	return best
}

func (v *Vocabulary) priceFromLine(line string, allowSmall, requireCurrency bool) string {
	currency := v.currencyRe.FindAllStringIndex(line, -1)
	if len(currency) > 0 {
		last := currency[len(currency)-1]
		if token := lastPriceToken(line[:last[0]], allowSmall); token != "" {
			return token
		}
	}
	if requireCurrency {
		return ""
	}
	return lastPriceToken(line, allowSmall)
}

// lastPriceToken returns the rightmost plausible price in text, preferring
// digit-grouped numbers such as "1 500".
func lastPriceToken(text string, allowSmall bool) string {
	grouped := boundedMatches(groupedNumberRe, text, isDigit)
	for i := len(grouped) - 1; i >= 0; i-- {
		tok := NormalizeNumber(text[grouped[i][0]:grouped[i][1]])
		if f, ok := toNumber(tok); ok && (allowSmall || f >= minPlainPrice) {
			return tok
		}
	}
	plain := scanNumbers(text, 2, 6, 2, false, nil)
	for i := len(plain) - 1; i >= 0; i-- {
		if f, ok := toNumber(plain[i].text); ok && (allowSmall || f >= minPlainPrice) {
			return NormalizeNumber(plain[i].text)
		}
	}
	return ""
}

func standalonePrices(line string) []string {
	var out []string
	for _, m := range boundedMatches(groupedNumberRe, line, isWordRune) {
		out = append(out, line[m[0]:m[1]])
	}
	if len(out) > 0 {
		return out
	}
	for _, n := range scanNumbers(line, 2, 6, 2, true, nil) {
		out = append(out, n.text)
	}
	return out
}
