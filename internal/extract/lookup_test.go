package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brandList struct {
	names []string
	err   error
}

func (b brandList) ListBrandNames(ctx context.Context) ([]string, error) {
	return b.names, b.err
}

func TestLookupHolder_Refresh(t *testing.T) {
	holder := NewLookupHolder(nil)
	before := holder.Load()

	err := holder.Refresh(context.Background(), brandList{names: []string{"Nike", " nike ", "", "Air Jordan"}})
	require.NoError(t, err)

	after := holder.Load()
	assert.NotSame(t, before, after)
	assert.Equal(t, 0, before.BrandCount())
	assert.Equal(t, 2, after.BrandCount())
	assert.Same(t, before.Vocabulary(), after.Vocabulary())
}

func TestLookupHolder_RefreshErrorKeepsSnapshot(t *testing.T) {
	holder := NewLookupHolder(testLookup("Nike"))
	before := holder.Load()

	err := holder.Refresh(context.Background(), brandList{err: errors.New("db closed")})
	assert.ErrorContains(t, err, "db closed")
	assert.Same(t, before, holder.Load())
}

func TestLookupHolder_ConcurrentParse(t *testing.T) {
	holder := NewLookupHolder(nil)
	e := NewExtractor(holder)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := e.Parse("Кросівки Nike Air\nРозмір 42\nЦіна 1500")
				assert.Equal(t, "42", got.Size)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		holder.Swap(testLookup("Nike"))
	}
	wg.Wait()
}

func TestLoadVocabulary_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	err := os.WriteFile(path, []byte("price_hints: [вартість]\ncolors:\n  бордовий: red\n"), 0o600)
	require.NoError(t, err)

	v, err := LoadVocabulary(path)
	require.NoError(t, err)

	lc := NewLookupContext(v, nil)
	assert.Equal(t, "75", lc.ExtractPrice([]string{"Вартість 75"}, ""))
	assert.Equal(t, "", lc.ExtractPrice([]string{"Ціна 75"}, ""))
	assert.Equal(t, "red", lc.ExtractColors([]string{"Колір: бордовий"}, ""))
	assert.Equal(t, "black", lc.ExtractColors([]string{"Колір: чорний"}, ""))
}

func TestParseVocabulary_Invalid(t *testing.T) {
	_, err := ParseVocabulary([]byte("name_labels: {"))
	assert.Error(t, err)

	_, err = ParseVocabulary([]byte("currency_markers: []"))
	assert.ErrorContains(t, err, "currency_markers")
}

func TestLoadVocabulary_MissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read vocabulary")
}

func TestParseVocabulary_ArrivalItemWords(t *testing.T) {
	lc := NewLookupContext(nil, nil)
	assert.Equal(t, "Nike Dunk Low", lc.ExtractName([]string{"Отримали новинки Nike Dunk Low"}))

	v, err := ParseVocabulary([]byte("arrival_item_words: [партію]\n"))
	require.NoError(t, err)

	lc = NewLookupContext(v, nil)
	assert.Equal(t, "Nike Dunk Low", lc.ExtractName([]string{"Отримали партію Nike Dunk Low"}))
	assert.Equal(t, "новинки Nike Dunk Low", lc.ExtractName([]string{"Отримали новинки Nike Dunk Low"}))
}
