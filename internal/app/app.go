// Package app wires the store, parser and marketplace client together for
// the bot and the command line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/raine/telegram-shafa-bot/config"
	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/ingest"
	"github.com/raine/telegram-shafa-bot/internal/llm"
	"github.com/raine/telegram-shafa-bot/internal/publish"
	"github.com/raine/telegram-shafa-bot/internal/shafa"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

// App holds the long-lived components. Refiner is nil without a Gemini key
// and Shafa is nil until a marketplace session has been stored.
type App struct {
	Config    *config.Config
	Store     *storage.SQLiteStore
	Extractor *extract.Extractor
	Refiner   llm.Refiner
	Shafa     shafa.Service
}

// Open opens the database and builds the components described by cfg.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	key, err := storage.DeriveKey(cfg.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	store, err := storage.NewSQLiteStore(cfg.DBPath, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	a := &App{Config: cfg, Store: store}
	if a.Extractor, err = newExtractor(ctx, cfg, store); err != nil {
		store.Close()
		return nil, err
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiRefiner(ctx, cfg.GeminiAPIKey)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.Refiner = llm.NewCachedRefiner(gemini, store)
		log.Info().Msg("gemini refiner enabled")
	}

	if err := a.Reconnect(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func newExtractor(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore) (*extract.Extractor, error) {
	var vocab *extract.Vocabulary
	if cfg.VocabularyPath != "" {
		v, err := extract.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, err
		}
		vocab = v
		log.Info().Str("path", cfg.VocabularyPath).Msg("vocabulary loaded")
	}
	brands, err := store.ListBrandNames(ctx)
	if err != nil {
		return nil, err
	}
	lookup := extract.NewLookupHolder(extract.NewLookupContext(vocab, brands))
	log.Info().Int("brands", len(brands)).Msg("brand lookup ready")
	return extract.NewExtractor(lookup), nil
}

// Reconnect builds the marketplace client from the stored cookies. Without
// a session Shafa stays nil.
func (a *App) Reconnect(ctx context.Context) error {
	cookies, err := a.Store.LoadCookies(ctx)
	if err != nil {
		return err
	}
	httpCookies := make([]*http.Cookie, len(cookies))
	for i, c := range cookies {
		httpCookies[i] = c.HTTPCookie()
	}

	client, err := shafa.NewClient(shafa.ClientOpts{
		Cookies:           httpCookies,
		RequestsPerSecond: a.Config.RequestsPerSecond,
		Retries:           2,
		Debug:             a.Config.DebugFetch,
	})
	if errors.Is(err, shafa.ErrNoCSRFToken) {
		log.Warn().Msg("no marketplace session stored, run shafa-login")
		a.Shafa = nil
		return nil
	}
	if err != nil {
		return err
	}
	a.Shafa = client
	log.Info().Int("cookies", len(cookies)).Msg("marketplace client ready")
	return nil
}

// NewPublisher returns a publisher that downloads photos through files.
func (a *App) NewPublisher(files publish.FileURLResolver) *publish.Publisher {
	return publish.NewPublisher(a.Store, a.Shafa, files, a.Extractor, publish.Options{
		Markup:         a.Config.Markup,
		ChannelIDs:     a.Config.ChannelIDs,
		FallbackBrands: a.Config.BrandIDs,
		LogDir:         a.Config.MediaDir,
	})
}

// NewIngest returns the channel post ingester. Channels are registered
// automatically unless SHAFA_CHANNEL_IDS pins the list.
func (a *App) NewIngest() *ingest.Service {
	return ingest.NewService(a.Store, a.Extractor, ingest.Options{
		Refiner:      a.Refiner,
		ChannelIDs:   a.Config.ChannelIDs,
		AutoRegister: len(a.Config.ChannelIDs) == 0,
		Debug:        a.Config.DebugFetch,
	})
}

func (a *App) Close() error {
	return a.Store.Close()
}
