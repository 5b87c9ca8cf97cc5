// Package config reads the bot settings from the environment and the
// user's config.env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "telegram-shafa-bot"
	EnvFileName = "config.env"

	DefaultDBPath   = "shafa.db"
	DefaultMarkup   = 200
	DefaultMediaDir = "media"
)

var ErrMissing = errors.New("missing required config")

var (
	// RequiredBot lists what the bot and the CLI cannot start without.
	RequiredBot = []string{"BOT_TOKEN", "ADMIN_TELEGRAM_ID", "SHAFA_TOKEN_KEY"}
	// RequiredStore is enough to open the encrypted database.
	RequiredStore = []string{"SHAFA_TOKEN_KEY"}
)

// Config holds every setting of the application.
type Config struct {
	BotToken          string
	AdminID           int64
	TokenKey          string
	DBPath            string
	ChannelIDs        []int64
	Markup            int
	AutoPublish       time.Duration
	VocabularyPath    string
	DebugFetch        bool
	GeminiAPIKey      string
	MediaDir          string
	BrandIDs          map[string]int
	RequestsPerSecond float64
}

// Dir returns the application's config directory, creating it if needed.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	dir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// FilePath returns the path of config.env.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EnvFileName), nil
}

// LoadEnvFile loads config.env into the environment. Variables that are
// already set win. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	path, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Missing returns the names of required variables that are not set.
func Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Load reads the configuration from the environment. The error wraps
// ErrMissing when one of required is unset.
func Load(required []string) (*Config, error) {
	if missing := Missing(required); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	cfg := &Config{
		BotToken:       os.Getenv("BOT_TOKEN"),
		TokenKey:       os.Getenv("SHAFA_TOKEN_KEY"),
		DBPath:         envOr("SHAFA_DB_PATH", DefaultDBPath),
		VocabularyPath: os.Getenv("SHAFA_VOCABULARY_PATH"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		MediaDir:       envOr("SHAFA_MEDIA_DIR", DefaultMediaDir),
		DebugFetch:     parseBool(os.Getenv("SHAFA_DEBUG_FETCH")),
	}

	var err error
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		if cfg.AdminID, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be a valid integer: %w", err)
		}
	}
	if cfg.ChannelIDs, err = ParseChannelIDs(os.Getenv("SHAFA_CHANNEL_IDS")); err != nil {
		return nil, err
	}
	if cfg.Markup, err = intEnv("SHAFA_MARKUP", DefaultMarkup); err != nil {
		return nil, err
	}
	minutes, err := intEnv("SHAFA_AUTO_PUBLISH_MINUTES", 0)
	if err != nil {
		return nil, err
	}
	cfg.AutoPublish = time.Duration(max(minutes, 0)) * time.Minute
	if cfg.BrandIDs, err = ParseBrandIDs(os.Getenv("SHAFA_BRAND_IDS")); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("SHAFA_REQUESTS_PER_SECOND")); v != "" {
		if cfg.RequestsPerSecond, err = strconv.ParseFloat(v, 64); err != nil || cfg.RequestsPerSecond <= 0 {
			return nil, fmt.Errorf("SHAFA_REQUESTS_PER_SECOND must be a positive number, got %q", v)
		}
	}
	return cfg, nil
}

// ParseChannelIDs reads ids separated by commas or whitespace.
func ParseChannelIDs(value string) ([]int64, error) {
	var ids []int64
	for _, field := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	}) {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseBrandIDs reads "name=id" pairs separated by commas. Names are
// lowercased.
func ParseBrandIDs(value string) (map[string]int, error) {
	brands := make(map[string]int)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, idText, ok := strings.Cut(pair, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid brand mapping %q, want name=id", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idText))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid brand id in %q", pair)
		}
		brands[name] = id
	}
	return brands, nil
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func intEnv(name string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
