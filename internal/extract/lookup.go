package extract

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// LookupContext bundles the read-only tables a parse depends on. It is never
// mutated after construction and may be shared between goroutines.
type LookupContext struct {
	vocab  *Vocabulary
	brands []brandName
}

type brandName struct {
	display string
	folded  string
}

// NewLookupContext builds a context from a vocabulary and the known brand
// names. A nil vocabulary means the built-in one.
func NewLookupContext(vocab *Vocabulary, brands []string) *LookupContext {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	seen := make(map[string]bool, len(brands))
	names := make([]string, 0, len(brands))
	for _, b := range brands {
		b = strings.TrimSpace(b)
		key := strings.ToLower(b)
		if b == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, b)
	}
	sortByLenDesc(names)

	lc := &LookupContext{vocab: vocab, brands: make([]brandName, len(names))}
	for i, n := range names {
		lc.brands[i] = brandName{display: n, folded: strings.ToLower(n)}
	}
	return lc
}

// Vocabulary returns the keyword tables of the context.
func (lc *LookupContext) Vocabulary() *Vocabulary { return lc.vocab }

// BrandCount returns how many brand names the context knows.
func (lc *LookupContext) BrandCount() int { return len(lc.brands) }

// WithBrands returns a copy of the context using another brand list.
func (lc *LookupContext) WithBrands(brands []string) *LookupContext {
	return NewLookupContext(lc.vocab, brands)
}

// BrandSource lists known brand names, typically from the reference tables
// fetched from the marketplace.
type BrandSource interface {
	ListBrandNames(ctx context.Context) ([]string, error)
}

// LookupHolder hands out the current LookupContext and replaces it
// atomically when reference data changes.
type LookupHolder struct {
	current atomic.Pointer[LookupContext]
}

func NewLookupHolder(lc *LookupContext) *LookupHolder {
	h := &LookupHolder{}
	if lc == nil {
		lc = NewLookupContext(nil, nil)
	}
	h.current.Store(lc)
	return h
}

// Load returns the current snapshot.
func (h *LookupHolder) Load() *LookupContext {
	return h.current.Load()
}

// Swap installs lc as the current snapshot.
func (h *LookupHolder) Swap(lc *LookupContext) {
	h.current.Store(lc)
}

// Refresh rebuilds the snapshot with the brand names from src. Parses in
// flight keep using the snapshot they loaded.
func (h *LookupHolder) Refresh(ctx context.Context, src BrandSource) error {
	names, err := src.ListBrandNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list brand names: %w", err)
	}
	next := h.Load().WithBrands(names)
	h.Swap(next)
	log.Info().Int("brands", next.BrandCount()).Msg("refreshed brand lookup")
	return nil
}
