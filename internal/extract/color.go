package extract

import (
	"regexp"
	"strings"
)

var colorWordRe = regexp.MustCompile(`[A-Za-zА-Яа-яІіЇїЄєҐґ]+`)

// ExtractColors returns the canonical colors mentioned in the post, space
// separated, in order of first mention. A modifier ("dark", "світлий")
// only applies to a color word that directly follows it.
func (lc *LookupContext) ExtractColors(lines []string, name string) string {
	v := lc.vocab

	var labelled []string
	for _, line := range lines {
		if containsAny(strings.ToLower(line), v.ColorLabels) {
			labelled = append(labelled, line)
		}
	}
	var candidates []string
	switch {
	case len(labelled) > 0:
		candidates = labelled
	case name != "":
		candidates = append([]string{name}, lines...)
	default:
		candidates = lines
	}

	var colors []string
	seen := make(map[string]bool)
	pending := ""
	for _, tok := range colorWordRe.FindAllString(strings.Join(candidates, " "), -1) {
		key := strings.ToLower(tok)
		if mod, ok := v.ColorModifiers[key]; ok {
			pending = mod
			continue
		}
		base, ok := v.Colors[key]
		if !ok {
			pending = ""
			continue
		}
		color := base
		if pending != "" {
			color = pending + " " + base
			pending = ""
		}
		if !seen[color] {
			seen[color] = true
			colors = append(colors, color)
		}
	}
	return strings.Join(colors, " ")
}
