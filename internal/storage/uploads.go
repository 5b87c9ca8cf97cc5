package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// UploadedProduct is a listing created on the marketplace.
type UploadedProduct struct {
	ProductID   string
	ChannelID   int64
	MessageID   int
	Name        string
	BrandID     int
	SizeID      int
	Price       int
	PhotoIDs    []string
	RawPayload  json.RawMessage
	Deactivated bool
	CreatedAt   time.Time
}

// SaveUploadedProduct records a created listing.
func (s *SQLiteStore) SaveUploadedProduct(ctx context.Context, p *UploadedProduct) error {
	photos, err := json.Marshal(p.PhotoIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal photo ids: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	payload := string(p.RawPayload)
	if payload == "" {
		payload = "{}"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO uploaded_products
			(product_id, channel_id, message_id, name, brand, size, price, photo_ids, raw_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ProductID, p.ChannelID, p.MessageID, p.Name, p.BrandID, p.SizeID, p.Price, string(photos), payload, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save uploaded product: %w", err)
	}
	return nil
}

// ListUploadedProducts returns the most recent listings first.
func (s *SQLiteStore) ListUploadedProducts(ctx context.Context, limit int) ([]UploadedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, channel_id, message_id, name, brand, size, price, photo_ids, raw_payload, deactivated, created_at
		FROM uploaded_products
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploaded products: %w", err)
	}
	defer rows.Close()

	var products []UploadedProduct
	for rows.Next() {
		var p UploadedProduct
		var photos, payload string
		if err := rows.Scan(&p.ProductID, &p.ChannelID, &p.MessageID, &p.Name, &p.BrandID, &p.SizeID, &p.Price,
			&photos, &payload, &p.Deactivated, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan uploaded product: %w", err)
		}
		if err := json.Unmarshal([]byte(photos), &p.PhotoIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal photo ids of %s: %w", p.ProductID, err)
		}
		p.RawPayload = json.RawMessage(payload)
		products = append(products, p)
	}
	return products, rows.Err()
}

// MarkProductsDeactivated flags listings that were taken off the marketplace.
func (s *SQLiteStore) MarkProductsDeactivated(ctx context.Context, productIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range productIDs {
		if _, err := s.db.ExecContext(ctx, "UPDATE uploaded_products SET deactivated = 1 WHERE product_id = ?", id); err != nil {
			return fmt.Errorf("failed to mark product %s deactivated: %w", id, err)
		}
	}
	return nil
}
