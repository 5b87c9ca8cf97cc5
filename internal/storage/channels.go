package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Channel is a Telegram channel whose posts are turned into listings.
type Channel struct {
	ID    int64
	Name  string
	Alias string
}

// Label returns the alias if one is set, otherwise the name.
func (c Channel) Label() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// SaveChannels inserts or renames channels. An empty alias keeps the one
// already stored.
func (s *SQLiteStore) SaveChannels(ctx context.Context, channels []Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range channels {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = fmt.Sprint(c.ID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO telegram_channels (channel_id, name, alias)
			VALUES (?, ?, NULLIF(?, ''))
			ON CONFLICT(channel_id) DO UPDATE SET
				name = excluded.name,
				alias = COALESCE(excluded.alias, telegram_channels.alias)
		`, c.ID, name, strings.TrimSpace(c.Alias))
		if err != nil {
			return fmt.Errorf("failed to save channel %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit channels: %w", err)
	}
	return nil
}

// ListChannels returns all channels ordered by id.
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT channel_id, name, alias FROM telegram_channels ORDER BY channel_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var c Channel
		var alias sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		c.Alias = alias.String
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// GetChannel returns nil, nil if the channel is unknown.
func (s *SQLiteStore) GetChannel(ctx context.Context, channelID int64) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Channel{ID: channelID}
	var alias sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT name, alias FROM telegram_channels WHERE channel_id = ?", channelID,
	).Scan(&c.Name, &alias)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query channel: %w", err)
	}
	c.Alias = alias.String
	return &c, nil
}

// DeleteChannel removes a channel. Queued products stay.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, channelID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM telegram_channels WHERE channel_id = ?", channelID)
	if err != nil {
		return false, fmt.Errorf("failed to delete channel: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RenameChannel reports false if the channel does not exist.
func (s *SQLiteStore) RenameChannel(ctx context.Context, channelID int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("channel name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE telegram_channels SET name = ? WHERE channel_id = ?", name, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to rename channel: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetChannelAlias sets or, with an empty alias, clears the display alias.
func (s *SQLiteStore) SetChannelAlias(ctx context.Context, channelID int64, alias string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE telegram_channels SET alias = NULLIF(?, '') WHERE channel_id = ?",
		strings.TrimSpace(alias), channelID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set channel alias: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ChangeChannelID moves a channel and its queued products to a new id, as
// happens when a group is migrated to a supergroup. It reports false when
// the old id is unknown or the new one is taken.
func (s *SQLiteStore) ChangeChannelID(ctx context.Context, oldID, newID int64) (bool, error) {
	if oldID == newID {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var taken int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM telegram_channels WHERE channel_id = ?", newID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check channel id: %w", err)
	}
	if taken > 0 {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, "UPDATE telegram_channels SET channel_id = ? WHERE channel_id = ?", newID, oldID)
	if err != nil {
		return false, fmt.Errorf("failed to change channel id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	for _, q := range []string{
		"UPDATE OR IGNORE telegram_products SET channel_id = ?, updated_at = CURRENT_TIMESTAMP WHERE channel_id = ?",
		"UPDATE OR IGNORE telegram_photos SET channel_id = ? WHERE channel_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, newID, oldID); err != nil {
			return false, fmt.Errorf("failed to move channel rows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit channel id change: %w", err)
	}
	return true, nil
}
