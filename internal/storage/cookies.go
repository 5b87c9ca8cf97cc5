package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieDomain is the only site whose cookies are kept.
const CookieDomain = "shafa.ua"

// Cookie is a browser cookie of the marketplace session.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  float64 // unix seconds, 0 for session cookies
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// HTTPCookie converts the cookie for use with net/http clients.
func (c Cookie) HTTPCookie() *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	if c.Expires > 0 {
		hc.Expires = time.Unix(int64(c.Expires), 0)
	}
	switch strings.ToLower(c.SameSite) {
	case "lax":
		hc.SameSite = http.SameSiteLaxMode
	case "strict":
		hc.SameSite = http.SameSiteStrictMode
	case "none":
		hc.SameSite = http.SameSiteNoneMode
	}
	return hc
}

// normalizeDomain strips a scheme and leading dot: "https://.shafa.ua" -> "shafa.ua".
func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if strings.Contains(domain, "://") {
		if u, err := url.Parse(domain); err == nil && u.Hostname() != "" {
			domain = u.Hostname()
		}
	}
	return strings.ToLower(strings.TrimLeft(domain, "."))
}

// IsAllowedCookieDomain reports whether domain is the marketplace or one of
// its subdomains.
func IsAllowedCookieDomain(domain string) bool {
	d := normalizeDomain(domain)
	return d == CookieDomain || strings.HasSuffix(d, "."+CookieDomain)
}

// SaveCookies stores marketplace cookies encrypted. Cookies of other sites
// are dropped, including ones saved earlier.
func (s *SQLiteStore) SaveCookies(ctx context.Context, cookies []Cookie) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := cleanupForeignCookies(ctx, tx); err != nil {
		return 0, err
	}

	saved := 0
	for _, c := range cookies {
		if c.Name == "" || !IsAllowedCookieDomain(c.Domain) {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		encrypted, err := Encrypt([]byte(c.Value), s.encryptionKey)
		if err != nil {
			return 0, fmt.Errorf("failed to encrypt cookie %s: %w", c.Name, err)
		}
		var expires any
		if c.Expires > 0 {
			expires = c.Expires
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cookies (domain, name, path, encrypted_value, expires, http_only, secure, same_site, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)
			ON CONFLICT(domain, name, path) DO UPDATE SET
				encrypted_value = excluded.encrypted_value,
				expires = excluded.expires,
				http_only = excluded.http_only,
				secure = excluded.secure,
				same_site = excluded.same_site,
				last_updated = excluded.last_updated
		`, c.Domain, c.Name, path, encrypted, expires, c.HTTPOnly, c.Secure, c.SameSite, time.Now().UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cookies: %w", err)
	}
	return saved, nil
}

func cleanupForeignCookies(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, "SELECT DISTINCT domain FROM cookies")
	if err != nil {
		return fmt.Errorf("failed to query cookie domains: %w", err)
	}
	var foreign []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan cookie domain: %w", err)
		}
		if !IsAllowedCookieDomain(d) {
			foreign = append(foreign, d)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read cookie domains: %w", err)
	}
	for _, d := range foreign {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cookies WHERE domain = ?", d); err != nil {
			return fmt.Errorf("failed to delete cookies of %s: %w", d, err)
		}
	}
	return nil
}

// LoadCookies returns the decrypted marketplace cookies.
func (s *SQLiteStore) LoadCookies(ctx context.Context) ([]Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, name, path, encrypted_value, expires, http_only, secure, same_site
		FROM cookies ORDER BY domain, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []Cookie
	for rows.Next() {
		var c Cookie
		var encrypted string
		var expires sql.NullFloat64
		var sameSite sql.NullString
		if err := rows.Scan(&c.Domain, &c.Name, &c.Path, &encrypted, &expires, &c.HTTPOnly, &c.Secure, &sameSite); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if !IsAllowedCookieDomain(c.Domain) {
			continue
		}
		value, err := Decrypt(encrypted, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt cookie %s: %w", c.Name, err)
		}
		c.Value = string(value)
		c.Expires = expires.Float64
		c.SameSite = sameSite.String
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// DeleteAllCookies logs the marketplace session out and returns how many
// cookies were removed.
func (s *SQLiteStore) DeleteAllCookies(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM cookies")
	if err != nil {
		return 0, fmt.Errorf("failed to delete cookies: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
