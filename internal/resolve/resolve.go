// Package resolve maps extracted listing fields onto marketplace ids and
// enums.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/shafa"
)

var (
	ErrUnresolvedSize = errors.New("size does not match any marketplace size")
	ErrInvalidPrice   = errors.New("price is missing or not positive")
)

const (
	womenMinSize = 36
	womenMaxSize = 41
)

// ReferenceData is the locally stored marketplace catalog.
type ReferenceData interface {
	BrandIDByName(ctx context.Context, name string) (int, bool, error)
	SizeIDByName(ctx context.Context, catalogSlug, name string) (int, bool, error)
	SizeIDExists(ctx context.Context, catalogSlug string, id int) (bool, error)
}

// Resolver turns extracted listings into marketplace products.
type Resolver struct {
	ref            ReferenceData
	fallbackBrands map[string]int
}

// New returns a resolver. fallbackBrands maps lowercase brand names to ids
// for brands missing from the stored list; it may be nil.
func New(ref ReferenceData, fallbackBrands map[string]int) *Resolver {
	fb := make(map[string]int, len(fallbackBrands))
	for name, id := range fallbackBrands {
		fb[strings.ToLower(strings.TrimSpace(name))] = id
	}
	return &Resolver{ref: ref, fallbackBrands: fb}
}

// BrandID resolves a brand name. ok is false when nothing matches.
func (r *Resolver) BrandID(ctx context.Context, name string) (id int, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}
	id, ok, err = r.ref.BrandIDByName(ctx, name)
	if err != nil || ok {
		return id, ok, err
	}
	if n, ok := parseID(name); ok {
		return n, true, nil
	}
	id, ok = r.fallbackBrands[strings.ToLower(name)]
	return id, ok, nil
}

// SizeID resolves a size label within a catalog, trying both decimal
// separators and finally a literal size id.
func (r *Resolver) SizeID(ctx context.Context, catalogSlug, value string) (id int, ok bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false, nil
	}

	candidates := []string{value}
	if strings.Contains(value, ",") {
		candidates = append(candidates, strings.ReplaceAll(value, ",", "."))
	}
	if strings.Contains(value, ".") {
		candidates = append(candidates, strings.ReplaceAll(value, ".", ","))
	}
	for _, c := range candidates {
		id, ok, err = r.ref.SizeIDByName(ctx, catalogSlug, c)
		if err != nil || ok {
			return id, ok, err
		}
	}

	n, ok := parseID(value)
	if !ok {
		return 0, false, nil
	}
	exists, err := r.ref.SizeIDExists(ctx, catalogSlug, n)
	if err != nil {
		return 0, false, err
	}
	return n, exists, nil
}

var colorTokenRe = regexp.MustCompile(`[a-z]+`)

// Colors converts an extracted color phrase to marketplace color enums.
// A light or dark modifier is ignored and the color after it is mapped on
// its own.
func Colors(color string) []string {
	tokens := colorTokenRe.FindAllString(strings.ToLower(color), -1)
	var out []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if (tok == "light" || tok == "dark") && i+1 < len(tokens) {
			i++
			tok = tokens[i]
		}
		enum, ok := colorEnums[tok]
		if ok && !slices.Contains(out, enum) {
			out = append(out, enum)
		}
	}
	if len(out) == 0 {
		return []string{shafa.DefaultColor}
	}
	return out
}

// CatalogSlug picks the women's sneakers catalog when every size is a
// number from 36 to 41.
func CatalogSlug(size string, additional []string) string {
	sizes := append([]string{size}, additional...)
	for _, s := range sizes {
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
		if err != nil || f < womenMinSize || f > womenMaxSize {
			return shafa.DefaultCatalog
		}
	}
	return shafa.WomenSneakersCatalog
}

// ParsePrice returns the integer part of a price such as "1850" or
// "1 850,50".
func ParsePrice(price string) (int, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(extract.NormalizeNumber(price)), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}

// BuildProduct resolves every field of the listing. It fails with
// ErrUnresolvedSize when the main size is unknown in the chosen catalog and
// with ErrInvalidPrice when the price is not a positive number. Additional
// sizes that cannot be resolved are left out.
func (r *Resolver) BuildProduct(ctx context.Context, listing extract.ExtractedListing) (shafa.Product, error) {
	p := shafa.NewProduct(strings.TrimSpace(listing.Name))
	p.CatalogSlug = CatalogSlug(listing.Size, listing.AdditionalSizes)
	p.Colors = Colors(listing.Color)

	brand, ok, err := r.BrandID(ctx, listing.Brand)
	if err != nil {
		return p, fmt.Errorf("failed to resolve brand: %w", err)
	}
	if ok {
		p.BrandID = brand
	}

	size, ok, err := r.SizeID(ctx, p.CatalogSlug, listing.Size)
	if err != nil {
		return p, fmt.Errorf("failed to resolve size: %w", err)
	}
	if !ok {
		return p, fmt.Errorf("%w: %q in %s", ErrUnresolvedSize, listing.Size, p.CatalogSlug)
	}
	p.SizeID = size

	for _, s := range listing.AdditionalSizes {
		id, ok, err := r.SizeID(ctx, p.CatalogSlug, s)
		if err != nil {
			return p, fmt.Errorf("failed to resolve size: %w", err)
		}
		if ok && id != p.SizeID && !slices.Contains(p.AdditionalSizeIDs, id) {
			p.AdditionalSizeIDs = append(p.AdditionalSizeIDs, id)
		}
	}

	price, ok := ParsePrice(listing.Price)
	if !ok || price <= 0 {
		return p, fmt.Errorf("%w: %q", ErrInvalidPrice, listing.Price)
	}
	p.Price = price

	return p, nil
}

func parseID(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
