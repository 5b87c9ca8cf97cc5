package storage

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps channels, the product queue, marketplace reference data
// and the encrypted marketplace session in one SQLite file.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
// encryptionKey protects stored cookies and must be 32 bytes.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	// WAL and a busy timeout let the bot and the CLI share the file
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", dbPath).Msg("failed to restrict database permissions")
		}
	}

	return store, nil
}

var schema = []struct {
	name  string
	query string
}{
	{"telegram_channels", `
	CREATE TABLE IF NOT EXISTS telegram_channels (
		channel_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		alias TEXT
	);`},
	{"telegram_products", `
	CREATE TABLE IF NOT EXISTS telegram_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id INTEGER NOT NULL,
		message_id INTEGER NOT NULL,
		media_group_id TEXT,
		raw_message TEXT,
		parsed_data TEXT,
		created INTEGER NOT NULL DEFAULT 0,
		created_product_id TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(channel_id, message_id)
	);
	CREATE INDEX IF NOT EXISTS idx_telegram_products_created ON telegram_products(created);
	CREATE INDEX IF NOT EXISTS idx_telegram_products_channel ON telegram_products(channel_id);`},
	{"telegram_photos", `
	CREATE TABLE IF NOT EXISTS telegram_photos (
		channel_id INTEGER NOT NULL,
		message_id INTEGER NOT NULL,
		media_group_id TEXT,
		file_id TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (channel_id, message_id)
	);
	CREATE INDEX IF NOT EXISTS idx_telegram_photos_group ON telegram_photos(channel_id, media_group_id);`},
	{"sizes", `
	CREATE TABLE IF NOT EXISTS sizes (
		id INTEGER NOT NULL,
		catalog_slug TEXT NOT NULL,
		primary_size_name TEXT NOT NULL,
		PRIMARY KEY (id, catalog_slug)
	);`},
	{"brands", `
	CREATE TABLE IF NOT EXISTS brands (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);`},
	{"uploaded_products", `
	CREATE TABLE IF NOT EXISTS uploaded_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT,
		channel_id INTEGER,
		message_id INTEGER,
		name TEXT,
		brand INTEGER,
		size INTEGER,
		price INTEGER,
		photo_ids TEXT,
		raw_payload TEXT,
		deactivated INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_uploaded_products_product_id ON uploaded_products(product_id);`},
	{"cookies", `
	CREATE TABLE IF NOT EXISTS cookies (
		domain TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		encrypted_value TEXT NOT NULL,
		expires REAL,
		http_only INTEGER NOT NULL DEFAULT 0,
		secure INTEGER NOT NULL DEFAULT 0,
		same_site TEXT,
		last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (domain, name, path)
	);`},
	{"llm_cache", `
	CREATE TABLE IF NOT EXISTS llm_cache (
		text_hash TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`},
}

func (s *SQLiteStore) init() error {
	for _, table := range schema {
		if _, err := s.db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	// Migration: databases created before media groups were tracked
	if _, err := s.db.Exec("ALTER TABLE telegram_products ADD COLUMN media_group_id TEXT"); err != nil {
		if !strings.Contains(err.Error(), "duplicate column name") {
			log.Warn().Err(err).Msg("failed to add media_group_id column (migration)")
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
