package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLookup(brands ...string) *LookupContext {
	return NewLookupContext(nil, brands)
}

func TestParse_LabeledFields(t *testing.T) {
	got := Parse("Назва: Nike Air Max\nБренд: Nike\nРозмір: 42\nЦіна: 1500 грн", testLookup())

	assert.Equal(t, "Nike Air Max", got.Name)
	assert.Equal(t, "Nike", got.Brand)
	assert.Equal(t, "42", got.Size)
	assert.Empty(t, got.AdditionalSizes)
	assert.Equal(t, "1500", got.Price)
	assert.Equal(t, 0.95, got.Confidence)
	assert.True(t, got.Complete())
}

func TestParse_ModelCodesAreNotPrices(t *testing.T) {
	got := Parse("Puma 180 Grey White\n1600", testLookup())
	assert.Equal(t, "1600", got.Price)

	got = Parse("Puma 180 Grey White\nPM035", testLookup())
	assert.Equal(t, "", got.Price)
	assert.Equal(t, "", got.Size)
	assert.False(t, got.Complete())
	assert.Equal(t, "price", got.Missing())
}

func TestParse_PriceOnPlainTextLine(t *testing.T) {
	got := Parse("Nike Air Force\nРозмір 42\nвсього 1800", testLookup())
	assert.Equal(t, "Nike Air Force", got.Name)
	assert.Equal(t, "42", got.Size)
	assert.Equal(t, "1800", got.Price)

	got = Parse("Adidas Samba\nРозмір 40\nOnly 1800 today", testLookup())
	assert.Equal(t, "1800", got.Price)
}

func TestParse_LineSeparatorsSplitFields(t *testing.T) {
	got := Parse("Назва: Nike Air\u2028Ціна: 1500 грн\u2029Розмір 42", testLookup())
	assert.Equal(t, "Nike Air", got.Name)
	assert.Equal(t, "1500", got.Price)
	assert.Equal(t, "42", got.Size)
}

func TestParse_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "🔥🔥🔥"} {
		got := Parse(in, testLookup())
		assert.Equal(t, ExtractedListing{AdditionalSizes: []string{}}, got)
		assert.Equal(t, 0.0, got.Confidence)
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"\xff\xfe\xfd",
		strings.Repeat("9", 10000),
		strings.Repeat("Розмір 36-41 ", 500),
		"Ціна: грн грн грн",
		"Бренд:",
		"Назва: -",
		"new",
		"1 2 3 4 5 6 7 8 9 0",
	}
	lc := testLookup("Nike", "New Balance")
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got := Parse(in, lc)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			assert.NotContains(t, got.AdditionalSizes, got.Size)
		})
	}
}

func TestParse_RealisticPost(t *testing.T) {
	post := `🔥 Новинка 🔥
Кросівки New Balance 530 Silver Navy
Розміри: 36-40
Ціна: 1 850 грн
Доставка Новою поштою, тел 0671234567`

	got := Parse(post, testLookup("Nike", "New Balance", "New"))

	require.NotEmpty(t, got.Name)
	assert.Equal(t, "New Balance", got.Brand)
	assert.Equal(t, "36", got.Size)
	assert.Equal(t, []string{"37", "38", "39", "40"}, got.AdditionalSizes)
	assert.Equal(t, "1850", got.Price)
	assert.Equal(t, "silver navy", got.Color)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestExtractor_UsesCurrentSnapshot(t *testing.T) {
	holder := NewLookupHolder(testLookup())
	e := NewExtractor(holder)

	post := "Кросівки Asics Gel Kayano\nРозмір 44\nЦіна 2100"
	assert.Equal(t, "Asics", e.Parse(post).Brand)

	holder.Swap(testLookup("Asics Gel"))
	assert.Equal(t, "Asics Gel", e.Parse(post).Brand)
}
