package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractName(t *testing.T) {
	lc := testLookup()
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "labeled",
			lines: []string{"Новинка сезону", "Модель: Adidas Gazelle - 1800 грн"},
			want:  "Adidas Gazelle",
		},
		{
			name:  "arrival phrase",
			lines: []string{"Отримали новинки Nike Dunk Low Panda"},
			want:  "Nike Dunk Low Panda",
		},
		{
			name:  "announcement keyword",
			lines: []string{"Анонсуємо: Salomon XT-6"},
			want:  "Salomon XT-6",
		},
		{
			name:  "generic prefix stripped",
			lines: []string{"Жіночі кросівки Puma Suede", "Розмір 38"},
			want:  "Puma Suede",
		},
		{
			name:  "first lines skip hints",
			lines: []string{"Ціна 1200", "Розмір 40", "Vans Old Skool"},
			want:  "Vans Old Skool",
		},
		{
			name:  "scored fallback prefers earlier lines",
			lines: []string{"Ціна 1200", "Розмір 40", "Доставка", "Reebok", "Converse"},
			want:  "Reebok",
		},
		{
			name:  "nothing name-like",
			lines: []string{"1200", "https://example.com/item", "@shop"},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.ExtractName(tt.lines))
		})
	}
}

func TestExtractBrand(t *testing.T) {
	lc := testLookup("Nike", "New Balance", "On")
	tests := []struct {
		name  string
		lines []string
		title string
		want  string
	}{
		{
			name:  "label cut at separator",
			lines: []string{"Brand: Nike | Jordan"},
			want:  "Nike",
		},
		{
			name:  "generic label value ignored",
			lines: []string{"Бренд: кросівки", "New Balance 574"},
			title: "New Balance 574",
			want:  "New Balance",
		},
		{
			name:  "longest known brand wins",
			lines: []string{"Кросівки New Balance 9060"},
			title: "Кросівки New Balance 9060",
			want:  "New Balance",
		},
		{
			name:  "whole words only",
			lines: []string{"Onitsuka Tiger Mexico 66"},
			title: "Onitsuka Tiger Mexico 66",
			want:  "Onitsuka",
		},
		{
			name:  "fallback trims punctuation",
			title: "Чоловічі (Saucony) Jazz",
			want:  "Saucony",
		},
		{
			name: "nothing",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.ExtractBrand(tt.lines, tt.title))
		})
	}
}

func TestExtractSizes(t *testing.T) {
	lc := testLookup()
	tests := []struct {
		name       string
		lines      []string
		wantSize   string
		wantExtras []string
	}{
		{
			name:       "range expands",
			lines:      []string{"Розмір: 36-41"},
			wantSize:   "36",
			wantExtras: []string{"37", "38", "39", "40", "41"},
		},
		{
			name:       "dedup keeps first-seen order",
			lines:      []string{"Розміри 42 43 42 44"},
			wantSize:   "42",
			wantExtras: []string{"43", "44"},
		},
		{
			name:       "measurements ignored",
			lines:      []string{"Розмір 40 (25.5 см)", "Розмірна сітка: 25 см"},
			wantSize:   "40",
			wantExtras: []string{},
		},
		{
			name:       "half sizes and comma lists",
			lines:      []string{"Size: 38,5 / 39,40"},
			wantSize:   "38.5",
			wantExtras: []string{"39", "40"},
		},
		{
			name:       "alpha sizes",
			lines:      []string{"Розміри: S, M, XL"},
			wantSize:   "S",
			wantExtras: []string{"M", "XL"},
		},
		{
			name:       "one size",
			lines:      []string{"One size"},
			wantSize:   OneSize,
			wantExtras: []string{},
		},
		{
			name:       "hinted lines win over fallback",
			lines:      []string{"Air Max 90", "Розмір 41"},
			wantSize:   "41",
			wantExtras: []string{},
		},
		{
			name:       "price lines skipped",
			lines:      []string{"Ціна 45 грн"},
			wantSize:   "",
			wantExtras: nil,
		},
		{
			name:       "out of range",
			lines:      []string{"Розмір 61 14"},
			wantSize:   "",
			wantExtras: nil,
		},
		{
			name:       "ukrainian size unit",
			lines:      []string{"Розміри: 40р, 41р, 42р"},
			wantSize:   "40",
			wantExtras: []string{"41", "42"},
		},
		{
			name:       "eu prefix and suffix",
			lines:      []string{"Size: EU42 43eu"},
			wantSize:   "42",
			wantExtras: []string{"43"},
		},
		{
			name:       "model codes are not sizes",
			lines:      []string{"Розмір 42 PM035 38x"},
			wantSize:   "42",
			wantExtras: []string{},
		},
		{
			name:       "long decimal skipped whole",
			lines:      []string{"Розмір 42.55"},
			wantSize:   "",
			wantExtras: nil,
		},
		{
			name:       "too wide range",
			lines:      []string{"Розмір 20-45"},
			wantSize:   "20",
			wantExtras: []string{"45"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, extras := lc.ExtractSizes(tt.lines)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantExtras, extras)
		})
	}
}

func TestExtractColors(t *testing.T) {
	lc := testLookup()
	tests := []struct {
		name  string
		lines []string
		title string
		want  string
	}{
		{
			name:  "modifier before base",
			lines: []string{"Dark Green Hoodie"},
			title: "Dark Green Hoodie",
			want:  "dark green",
		},
		{
			name:  "modifier after base is dropped",
			lines: []string{"Green Dark scarf"},
			title: "Green Dark scarf",
			want:  "green",
		},
		{
			name:  "labelled line only",
			lines: []string{"Nike Black Cat", "Колір: білий / червоний"},
			title: "Nike Black Cat",
			want:  "white red",
		},
		{
			name:  "synonyms collapse",
			lines: []string{"Grey gray сірий"},
			want:  "gray",
		},
		{
			name:  "cyrillic modifier",
			lines: []string{"Колір: темний синій"},
			want:  "dark blue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.ExtractColors(tt.lines, tt.title))
		})
	}
}

func TestExtractPrice(t *testing.T) {
	lc := testLookup()
	tests := []struct {
		name  string
		lines []string
		title string
		want  string
	}{
		{
			name:  "hint line with currency",
			lines: []string{"Ціна: 1 500 грн"},
			want:  "1500",
		},
		{
			name:  "hint line allows small numbers",
			lines: []string{"Дроп 95"},
			want:  "95",
		},
		{
			name:  "last number before currency",
			lines: []string{"Опт 800 / роздріб 1200 грн"},
			want:  "1200",
		},
		{
			name:  "decimal comma",
			lines: []string{"Price: 1 299,50"},
			want:  "1299.50",
		},
		{
			name:  "currency without hint",
			lines: []string{"Adidas Samba", "Всього 2300 uah"},
			want:  "2300",
		},
		{
			name:  "article lines excluded",
			lines: []string{"Артикул 123456 грн"},
			want:  "",
		},
		{
			name:  "largest standalone number",
			lines: []string{"Adidas Samba", "1400", "1700 / 1650"},
			title: "Adidas Samba",
			want:  "1700",
		},
		{
			name:  "standalone number on a text line",
			lines: []string{"Nike Air Force", "Розмір 42", "всього 1800"},
			title: "Nike Air Force",
			want:  "1800",
		},
		{
			name:  "standalone number on an english text line",
			lines: []string{"Adidas Samba", "Розмір 40", "Only 1800 today"},
			title: "Adidas Samba",
			want:  "1800",
		},
		{
			name:  "model number in the title line",
			lines: []string{"Puma 180 Grey White", "Air Max 270 in stock"},
			title: "Puma 180 Grey White",
			want:  "270",
		},
		{
			name:  "phone numbers are not prices",
			lines: []string{"0671234567"},
			want:  "",
		},
		{
			name:  "small standalone numbers ignored",
			lines: []string{"42"},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.ExtractPrice(tt.lines, tt.title))
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := map[string]string{
		"1 500":      "1500",
		"1 500,50":   "1500.50",
		"42.0":       "42",
		"38,5":       "38.5",
		"12 345 678": "12345678",
	}
	for in, want := range tests {
		got := NormalizeNumber(in)
		assert.Equal(t, want, got)

		f, ok := toNumber(in)
		assert.True(t, ok)
		g, _ := toNumber(got)
		assert.Equal(t, f, g)
	}
}

func TestScanNumbers_SizeTokens(t *testing.T) {
	units := map[string]bool{"р": true, "eu": true}
	tests := map[string][]string{
		"42.55 43":       {"43"},
		"39,40":          {"39", "40"},
		"38,5 / 39":      {"38,5", "39"},
		"40р 41Р":        {"40", "41"},
		"EU42 43eu":      {"42", "43"},
		"PM035 38x 42xl": nil,
		"Nike42 40":      {"40"},
		"1234 42":        {"42"},
	}
	for in, want := range tests {
		var got []string
		for _, n := range scanNumbers(in, 2, 3, 1, true, units) {
			got = append(got, n.text)
		}
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "", "", "", ""))
	assert.Equal(t, 1.0, Score("n", "p", "s", "b", "c"))
	assert.Equal(t, 0.9, Score("n", "p", "s", "", ""))

	fields := []string{"n", "p", "s", "b", "c"}
	for mask := 0; mask < 1<<5; mask++ {
		vals := make([]string, 5)
		for i := range fields {
			if mask&(1<<i) != 0 {
				vals[i] = fields[i]
			}
		}
		base := Score(vals[0], vals[1], vals[2], vals[3], vals[4])
		for i := range fields {
			if vals[i] != "" {
				continue
			}
			more := append([]string(nil), vals...)
			more[i] = fields[i]
			assert.GreaterOrEqual(t, Score(more[0], more[1], more[2], more[3], more[4]), base)
		}
	}
}
