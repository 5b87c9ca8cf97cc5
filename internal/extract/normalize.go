package extract

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxLineRunes bounds the work any single line can cause downstream.
const maxLineRunes = 2000

var (
	leadingBulletsRe = regexp.MustCompile(`^[•*#>\-–—\s]+`)
	spaceRunRe       = regexp.MustCompile(`\s{2,}`)
)

var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Map(func(r rune) rune {
				switch r {
				case '\t', '\u00a0':
					return ' '
				case '\u2013', '\u2014':
					return '-'
				}
				return r
			}),
			runes.Remove(runes.Predicate(dropRune)),
			norm.NFKC,
		)
	},
}

func dropRune(r rune) bool {
	if r == '\n' {
		return false
	}
	switch r {
	case '\u200d', '\ufe0f', '\ufe0e':
		return true
	}
	return unicode.In(r, unicode.Cc, unicode.Cf, unicode.So, unicode.Sk)
}

// Normalize cleans a raw post and splits it into non-empty lines.
// Normalize(strings.Join(Normalize(x), "\n")) equals Normalize(x).
func Normalize(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToValidUTF8(text, "")
	text = lineBreaks.Replace(text)

	tr := chainPool.Get().(transform.Transformer)
	cleaned, _, err := transform.String(tr, text)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		cleaned = text
	}

	var lines []string
	for _, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(truncateRunes(raw, maxLineRunes))
		if line == "" {
			continue
		}
		line = leadingBulletsRe.ReplaceAllString(line, "")
		line = spaceRunRe.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// NormalizeText is Normalize with the lines joined back together.
func NormalizeText(text string) string {
	return strings.Join(Normalize(text), "\n")
}
