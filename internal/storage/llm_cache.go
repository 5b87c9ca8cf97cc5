package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RefinementCacheEntry is a cached model answer for one post text.
type RefinementCacheEntry struct {
	Name  string
	Brand string
	Size  string
	Color string
	Price string
}

// GetRefinementCache returns nil, nil if nothing is cached for the hash.
func (s *SQLiteStore) GetRefinementCache(ctx context.Context, textHash string) (*RefinementCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e RefinementCacheEntry
	err := s.db.QueryRowContext(ctx,
		"SELECT name, brand, size, color, price FROM llm_cache WHERE text_hash = ?", textHash,
	).Scan(&e.Name, &e.Brand, &e.Size, &e.Color, &e.Price)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query refinement cache: %w", err)
	}
	return &e, nil
}

// SetRefinementCache stores a model answer.
func (s *SQLiteStore) SetRefinementCache(ctx context.Context, textHash string, e *RefinementCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_cache (text_hash, name, brand, size, color, price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(text_hash) DO UPDATE SET
			name = excluded.name,
			brand = excluded.brand,
			size = excluded.size,
			color = excluded.color,
			price = excluded.price,
			created_at = CURRENT_TIMESTAMP
	`, textHash, e.Name, e.Brand, e.Size, e.Color, e.Price)
	if err != nil {
		return fmt.Errorf("failed to cache refinement: %w", err)
	}
	return nil
}
