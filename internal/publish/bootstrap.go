package publish

import (
	"context"
	"fmt"

	"github.com/raine/telegram-shafa-bot/internal/shafa"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

// BootstrapResult counts the reference rows that were stored.
type BootstrapResult struct {
	Sizes  map[string]int
	Brands int
}

// Bootstrap downloads sizes for every catalog and the brand list, stores
// them and rebuilds the extractor's brand lookup.
func (p *Publisher) Bootstrap(ctx context.Context) (*BootstrapResult, error) {
	res := &BootstrapResult{Sizes: make(map[string]int)}

	for _, catalog := range shafa.Catalogs {
		if err := p.refreshSizes(ctx, catalog); err != nil {
			return nil, err
		}
		n, err := p.store.CountSizes(ctx, catalog)
		if err != nil {
			return nil, err
		}
		res.Sizes[catalog] = n
	}

	brands, err := p.shafa.FetchBrands(ctx, shafa.DefaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch brands: %w", err)
	}
	rows := make([]storage.Brand, 0, len(brands))
	for _, b := range brands {
		rows = append(rows, storage.Brand{ID: b.ID, Name: b.Name})
	}
	if err := p.store.SaveBrands(ctx, rows); err != nil {
		return nil, err
	}
	res.Brands = len(rows)

	if err := p.extractor.Lookup().Refresh(ctx, p.store); err != nil {
		return nil, err
	}

	log.Info().Interface("sizes", res.Sizes).Int("brands", res.Brands).Msg("bootstrap complete")
	return res, nil
}
