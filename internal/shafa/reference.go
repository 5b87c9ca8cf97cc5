package shafa

import (
	"context"
	"strconv"
	"strings"
)

// Size is a size option of a catalog.
type Size struct {
	ID            int
	Name          string
	SecondaryName string
}

// Brand is a brand offered on the listing form.
type Brand struct {
	ID   int
	Name string
}

// FetchSizes returns the size options of the catalog.
func (c *Client) FetchSizes(ctx context.Context, catalogSlug string) ([]Size, error) {
	var result struct {
		FilterSize []struct {
			ID                flexID `json:"id"`
			PrimarySizeName   string `json:"primarySizeName"`
			SecondarySizeName string `json:"secondarySizeName"`
		} `json:"filterSize"`
	}
	vars := map[string]any{"catalogSlug": catalogSlug}
	if err := c.graphqlBatch(ctx, "WEB_ProductFormSizes", sizesQuery, vars, &result); err != nil {
		return nil, err
	}

	sizes := make([]Size, 0, len(result.FilterSize))
	for _, s := range result.FilterSize {
		id, err := strconv.Atoi(string(s.ID))
		if err != nil || strings.TrimSpace(s.PrimarySizeName) == "" {
			continue
		}
		sizes = append(sizes, Size{ID: id, Name: s.PrimarySizeName, SecondaryName: s.SecondarySizeName})
	}
	return sizes, nil
}

type brandEntry struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

// FetchBrands returns the top brands followed by every other brand of the
// catalog, without duplicates.
func (c *Client) FetchBrands(ctx context.Context, catalogSlug string) ([]Brand, error) {
	var result struct {
		FilterTopBrands struct {
			TopBrands []brandEntry `json:"topBrands"`
			Brands    []brandEntry `json:"brands"`
		} `json:"filterTopBrands"`
	}
	vars := map[string]any{"catalogSlug": catalogSlug}
	if err := c.graphqlBatch(ctx, "WEB_ProductFormTopBrands", brandsQuery, vars, &result); err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var brands []Brand
	for _, group := range [][]brandEntry{result.FilterTopBrands.TopBrands, result.FilterTopBrands.Brands} {
		for _, b := range group {
			id, err := strconv.Atoi(string(b.ID))
			if err != nil || seen[id] || strings.TrimSpace(b.Name) == "" {
				continue
			}
			seen[id] = true
			brands = append(brands, Brand{ID: id, Name: strings.TrimSpace(b.Name)})
		}
	}
	return brands, nil
}
