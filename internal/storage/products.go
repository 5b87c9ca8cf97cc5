package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raine/telegram-shafa-bot/internal/extract"
)

// SkippedMissingData marks queue rows that were dropped because a re-parse
// no longer found a price or size.
const SkippedMissingData = "SKIPPED_MISSING_DATA"

// TelegramProduct is a channel post queued for publishing.
type TelegramProduct struct {
	ChannelID        int64
	MessageID        int
	MediaGroupID     string
	RawMessage       string
	Parsed           extract.ExtractedListing
	Created          bool
	CreatedProductID string
	CreatedAt        time.Time
}

// Photo is a picture posted to a channel, either with the product text or
// as another item of the same album.
type Photo struct {
	ChannelID    int64
	MessageID    int
	MediaGroupID string
	FileID       string
	FileSize     int
}

// SaveTelegramProduct queues a parsed post. It returns false without error
// when the post has no size or is already queued.
func (s *SQLiteStore) SaveTelegramProduct(ctx context.Context, p *TelegramProduct) (bool, error) {
	if p.Parsed.Size == "" {
		return false, nil
	}
	parsed, err := json.Marshal(p.Parsed)
	if err != nil {
		return false, fmt.Errorf("failed to marshal parsed data: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO telegram_products
			(channel_id, message_id, media_group_id, raw_message, parsed_data, created_at, updated_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?)
		ON CONFLICT(channel_id, message_id) DO NOTHING
	`, p.ChannelID, p.MessageID, p.MediaGroupID, p.RawMessage, string(parsed), p.CreatedAt, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to save telegram product: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

const productColumns = `channel_id, message_id, media_group_id, raw_message, parsed_data, created, created_product_id, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*TelegramProduct, error) {
	var p TelegramProduct
	var group, raw, parsed, productID sql.NullString
	if err := row.Scan(&p.ChannelID, &p.MessageID, &group, &raw, &parsed, &p.Created, &productID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.MediaGroupID = group.String
	p.RawMessage = raw.String
	p.CreatedProductID = productID.String
	if parsed.String != "" {
		if err := json.Unmarshal([]byte(parsed.String), &p.Parsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parsed data of message %d: %w", p.MessageID, err)
		}
	}
	return &p, nil
}

// GetTelegramProduct returns nil, nil if the post is not queued.
func (s *SQLiteStore) GetTelegramProduct(ctx context.Context, channelID int64, messageID int) (*TelegramProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanProduct(s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM telegram_products WHERE channel_id = ? AND message_id = ?",
		channelID, messageID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query telegram product: %w", err)
	}
	return p, nil
}

// NextPendingProduct returns the newest post of the channel that has not
// been published yet, or nil, nil.
func (s *SQLiteStore) NextPendingProduct(ctx context.Context, channelID int64) (*TelegramProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanProduct(s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM telegram_products WHERE channel_id = ? AND created = 0 ORDER BY message_id DESC LIMIT 1",
		channelID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending product: %w", err)
	}
	return p, nil
}

// ListPendingProducts returns up to limit unpublished posts, newest first.
func (s *SQLiteStore) ListPendingProducts(ctx context.Context, limit int) ([]TelegramProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM telegram_products WHERE created = 0 ORDER BY created_at DESC, message_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending products: %w", err)
	}
	defer rows.Close()

	var products []TelegramProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// PendingCounts returns the number of unpublished posts per channel.
func (s *SQLiteStore) PendingCounts(ctx context.Context) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT channel_id, COUNT(*) FROM telegram_products WHERE created = 0 GROUP BY channel_id")
	if err != nil {
		return nil, fmt.Errorf("failed to count pending products: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan pending count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// MarkProductCreated takes a post off the queue. productID is the marketplace
// id, or SkippedMissingData.
func (s *SQLiteStore) MarkProductCreated(ctx context.Context, channelID int64, messageID int, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE telegram_products
		SET created = 1, created_product_id = NULLIF(?, ''), updated_at = ?
		WHERE channel_id = ? AND message_id = ?
	`, productID, time.Now().UTC(), channelID, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark product created: %w", err)
	}
	return nil
}

// SavePhoto records a channel photo. Re-posting the same message replaces it.
func (s *SQLiteStore) SavePhoto(ctx context.Context, photo Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO telegram_photos (channel_id, message_id, media_group_id, file_id, file_size)
		VALUES (?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT(channel_id, message_id) DO UPDATE SET
			media_group_id = excluded.media_group_id,
			file_id = excluded.file_id,
			file_size = excluded.file_size
	`, photo.ChannelID, photo.MessageID, photo.MediaGroupID, photo.FileID, photo.FileSize)
	if err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}
	return nil
}

// PhotosForProduct returns the photo of the post itself and every photo of
// its album, in posting order.
func (s *SQLiteStore) PhotosForProduct(ctx context.Context, channelID int64, messageID int, mediaGroupID string) ([]Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, message_id, media_group_id, file_id, file_size
		FROM telegram_photos
		WHERE channel_id = ? AND (message_id = ? OR (media_group_id IS NOT NULL AND media_group_id = NULLIF(?, '')))
		ORDER BY message_id
	`, channelID, messageID, mediaGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		var group sql.NullString
		if err := rows.Scan(&p.ChannelID, &p.MessageID, &group, &p.FileID, &p.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		p.MediaGroupID = group.String
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
