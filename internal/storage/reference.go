package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Brand is a marketplace brand.
type Brand struct {
	ID   int
	Name string
}

// Size is a marketplace size option of one catalog.
type Size struct {
	ID          int
	CatalogSlug string
	Name        string
}

// SaveBrands upserts brands by id. Entries without a name are ignored.
func (s *SQLiteStore) SaveBrands(ctx context.Context, brands []Brand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range brands {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO brands (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, b.ID, name); err != nil {
			return fmt.Errorf("failed to save brand %d: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit brands: %w", err)
	}
	return nil
}

// BrandIDByName looks a brand up ignoring case. ok is false when unknown.
func (s *SQLiteStore) BrandIDByName(ctx context.Context, name string) (id int, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRowContext(ctx, "SELECT id FROM brands WHERE name = ? COLLATE NOCASE LIMIT 1", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query brand: %w", err)
	}
	return id, true, nil
}

// ListBrandNames returns every stored brand name.
func (s *SQLiteStore) ListBrandNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM brands WHERE TRIM(name) != '' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query brand names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan brand name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveSizes upserts the size options of one catalog.
func (s *SQLiteStore) SaveSizes(ctx context.Context, catalogSlug string, sizes []Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, sz := range sizes {
		name := strings.TrimSpace(sz.Name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sizes (id, catalog_slug, primary_size_name) VALUES (?, ?, ?)
			ON CONFLICT(id, catalog_slug) DO UPDATE SET primary_size_name = excluded.primary_size_name
		`, sz.ID, catalogSlug, name); err != nil {
			return fmt.Errorf("failed to save size %d: %w", sz.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sizes: %w", err)
	}
	return nil
}

// SizeIDByName finds a size of the catalog by its label, ignoring case.
func (s *SQLiteStore) SizeIDByName(ctx context.Context, catalogSlug, name string) (id int, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM sizes WHERE catalog_slug = ? AND primary_size_name = ? COLLATE NOCASE LIMIT 1",
		catalogSlug, name,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query size: %w", err)
	}
	return id, true, nil
}

// SizeIDExists reports whether id is a size of the catalog.
func (s *SQLiteStore) SizeIDExists(ctx context.Context, catalogSlug string, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sizes WHERE catalog_slug = ? AND id = ?", catalogSlug, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check size: %w", err)
	}
	return count > 0, nil
}

// CountSizes returns how many sizes are stored for a catalog.
func (s *SQLiteStore) CountSizes(ctx context.Context, catalogSlug string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sizes WHERE catalog_slug = ?", catalogSlug).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sizes: %w", err)
	}
	return count, nil
}
