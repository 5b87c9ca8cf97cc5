package extract

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary holds the keyword tables the extractors match against.
type Vocabulary struct {
	PriceHints        []string          `yaml:"price_hints"`
	SizeHints         []string          `yaml:"size_hints"`
	ContactHints      []string          `yaml:"contact_hints"`
	NonNameHints      []string          `yaml:"non_name_hints"`
	NameExcludeHints  []string          `yaml:"name_exclude_hints"`
	PriceExcludeHints []string          `yaml:"price_exclude_hints"`
	SizeExcludeHints  []string          `yaml:"size_exclude_hints"`
	NameLabels        []string          `yaml:"name_labels"`
	BrandLabels       []string          `yaml:"brand_labels"`
	ColorLabels       []string          `yaml:"color_labels"`
	ArrivalVerbs      []string          `yaml:"arrival_verbs"`
	ArrivalItemWords  []string          `yaml:"arrival_item_words"`
	AnnouncementWords []string          `yaml:"announcement_words"`
	CurrencyMarkers   []string          `yaml:"currency_markers"`
	GenericNameTokens []string          `yaml:"generic_name_tokens"`
	AlphaSizes        []string          `yaml:"alpha_sizes"`
	SizeUnits         []string          `yaml:"size_units"`
	Colors            map[string]string `yaml:"colors"`
	ColorModifiers    map[string]string `yaml:"color_modifiers"`

	// derived, built by compile
	nonName      []string
	generic      map[string]bool
	alpha        map[string]bool
	sizeUnits    map[string]bool
	nameLabelRe  *regexp.Regexp
	brandLabelRe *regexp.Regexp
	arrivalRe    *regexp.Regexp
	announceRe   *regexp.Regexp
	currencyRe   *regexp.Regexp
	priceTailRe  *regexp.Regexp
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return v
}

// LoadVocabulary reads tables from a YAML file. Sections missing from the
// file keep their built-in values.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes YAML on top of the built-in tables.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := yaml.Unmarshal(defaultVocabularyYAML, v); err != nil {
		return nil, fmt.Errorf("failed to parse embedded vocabulary: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if err := v.compile(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vocabulary) compile() error {
	if len(v.NameLabels) == 0 || len(v.BrandLabels) == 0 || len(v.CurrencyMarkers) == 0 {
		return fmt.Errorf("vocabulary needs name_labels, brand_labels and currency_markers")
	}

	v.PriceHints = foldAll(v.PriceHints)
	v.SizeHints = foldAll(v.SizeHints)
	v.ContactHints = foldAll(v.ContactHints)
	v.NonNameHints = foldAll(v.NonNameHints)
	v.NameExcludeHints = foldAll(v.NameExcludeHints)
	v.PriceExcludeHints = foldAll(v.PriceExcludeHints)
	v.SizeExcludeHints = foldAll(v.SizeExcludeHints)
	v.ColorLabels = foldAll(v.ColorLabels)
	v.BrandLabels = foldAll(v.BrandLabels)

	v.nonName = make([]string, 0, len(v.PriceHints)+len(v.SizeHints)+len(v.ContactHints)+len(v.NonNameHints))
	v.nonName = append(v.nonName, v.PriceHints...)
	v.nonName = append(v.nonName, v.SizeHints...)
	v.nonName = append(v.nonName, v.ContactHints...)
	v.nonName = append(v.nonName, v.NonNameHints...)

	v.generic = make(map[string]bool, len(v.GenericNameTokens))
	for _, t := range v.GenericNameTokens {
		v.generic[normalizeToken(t)] = true
	}
	v.alpha = make(map[string]bool, len(v.AlphaSizes))
	for _, s := range v.AlphaSizes {
		v.alpha[strings.ToUpper(s)] = true
	}
	v.sizeUnits = make(map[string]bool, len(v.SizeUnits))
	for _, u := range foldAll(v.SizeUnits) {
		v.sizeUnits[u] = true
	}

	folded := make(map[string]string, len(v.Colors))
	for k, c := range v.Colors {
		folded[strings.ToLower(k)] = c
	}
	v.Colors = folded
	folded = make(map[string]string, len(v.ColorModifiers))
	for k, m := range v.ColorModifiers {
		folded[strings.ToLower(k)] = m
	}
	v.ColorModifiers = folded

	var err error
	if v.nameLabelRe, err = regexp.Compile(`(?i)^(?:` + alternation(v.NameLabels) + `)\s*[:\-]\s*(.+)$`); err != nil {
		return fmt.Errorf("failed to compile name label pattern: %w", err)
	}
	// the trailing class stands in for a word boundary that also holds for Cyrillic
	if v.brandLabelRe, err = regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}_])(?:` + alternation(v.BrandLabels) + `)(?:[^\p{L}\p{N}_]|$)\s*[:\-]?\s*(.+)$`); err != nil {
		return fmt.Errorf("failed to compile brand label pattern: %w", err)
	}
	if len(v.ArrivalVerbs) > 0 {
		items := ""
		if len(v.ArrivalItemWords) > 0 {
			items = `(?:(?:` + alternation(v.ArrivalItemWords) + `)\s+)?`
		}
		if v.arrivalRe, err = regexp.Compile(`(?i)^(?:` + alternation(v.ArrivalVerbs) + `)\s+` + items + `(.+)$`); err != nil {
			return fmt.Errorf("failed to compile arrival pattern: %w", err)
		}
	}
	if len(v.AnnouncementWords) > 0 {
		if v.announceRe, err = regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}_])(?:` + alternation(v.AnnouncementWords) + `)(?:[^\p{L}\p{N}_]|$)[:\-]?\s*(.+)`); err != nil {
			return fmt.Errorf("failed to compile announcement pattern: %w", err)
		}
	}
	if v.currencyRe, err = regexp.Compile(`(?i)(?:` + alternation(v.CurrencyMarkers) + `)(?:[^\p{L}\p{N}_]|$)`); err != nil {
		return fmt.Errorf("failed to compile currency pattern: %w", err)
	}
	if v.priceTailRe, err = regexp.Compile(`(?i)\s*[-:]?\s*\d{2,6}\s*(?:` + alternation(v.CurrencyMarkers) + `)(?:[^\p{L}\p{N}_].*)?$`); err != nil {
		return fmt.Errorf("failed to compile price clause pattern: %w", err)
	}
	return nil
}

// alternation quotes words for use inside a regexp group. A trailing "*"
// turns the word into a prefix match.
func alternation(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if strings.HasSuffix(w, "*") {
			parts = append(parts, regexp.QuoteMeta(strings.TrimSuffix(w, "*"))+`[\p{L}\p{N}_]*`)
			continue
		}
		parts = append(parts, regexp.QuoteMeta(w))
	}
	// longer alternatives first so "анонсуємо" wins over "анонс"
	sortByLenDesc(parts)
	return strings.Join(parts, "|")
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
