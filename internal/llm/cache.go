package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

// CacheStore persists model answers keyed by text hash.
type CacheStore interface {
	GetRefinementCache(ctx context.Context, textHash string) (*storage.RefinementCacheEntry, error)
	SetRefinementCache(ctx context.Context, textHash string, e *storage.RefinementCacheEntry) error
}

// CachedRefiner wraps a Suggester with SQLite caching so each post text is
// sent to the model at most once.
type CachedRefiner struct {
	inner Suggester
	store CacheStore
}

// NewCachedRefiner creates a cached refiner.
func NewCachedRefiner(inner Suggester, store CacheStore) *CachedRefiner {
	return &CachedRefiner{inner: inner, store: store}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// Suggest implements Suggester with caching.
func (c *CachedRefiner) Suggest(ctx context.Context, text string) (*Suggestion, error) {
	hash := hashText(text)

	if c.store != nil {
		cached, err := c.store.GetRefinementCache(ctx, hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check refinement cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("refinement cache hit")
			return &Suggestion{
				Name:  cached.Name,
				Brand: cached.Brand,
				Size:  cached.Size,
				Color: cached.Color,
				Price: cached.Price,
			}, nil
		}
	}

	s, err := c.inner.Suggest(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.store != nil && s != nil {
		entry := &storage.RefinementCacheEntry{
			Name:  s.Name,
			Brand: s.Brand,
			Size:  s.Size,
			Color: s.Color,
			Price: s.Price,
		}
		if err := c.store.SetRefinementCache(ctx, hash, entry); err != nil {
			log.Warn().Err(err).Msg("failed to cache refinement")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached refinement")
		}
	}
	return s, nil
}

// Refine implements Refiner.
func (c *CachedRefiner) Refine(ctx context.Context, text string, listing extract.ExtractedListing) (extract.ExtractedListing, error) {
	return NewRefiner(c).Refine(ctx, text, listing)
}
