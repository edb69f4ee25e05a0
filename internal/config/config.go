package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported LLM providers for race-day briefings.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath    string        `env:"FUELPLAN_DB_PATH" envDefault:"data/fuelplan.db"`
	FavoritesPath   string        `env:"FUELPLAN_FAVORITES_PATH" envDefault:"data/favorites.db"`
	CatalogSeedPath string        `env:"FUELPLAN_CATALOG_SEED"`
	ExportDir       string        `env:"FUELPLAN_EXPORT_DIR" envDefault:"data/exports"`
	SaveDebounce    time.Duration `env:"FUELPLAN_SAVE_DEBOUNCE" envDefault:"1s"`

	LogLevel string `env:"FUELPLAN_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"FUELPLAN_LOG_JSON" envDefault:"false"`

	// Signing secret for session tokens. Empty means every session is a guest.
	JWTSecret string `env:"FUELPLAN_JWT_SECRET"`

	LLMProvider  string `env:"FUELPLAN_LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`

	// Telegram Config
	TelegramBotToken       string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL     string  `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowedUserIDs []int64 `env:"TELEGRAM_ALLOWED_USER_IDS" envSeparator:","`
	AdminTelegramID        int64   `env:"ADMIN_TELEGRAM_ID"`
	Port                   string  `env:"PORT" envDefault:"8080"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.SaveDebounce <= 0 {
		return nil, fmt.Errorf("FUELPLAN_SAVE_DEBOUNCE must be positive, got %s", cfg.SaveDebounce)
	}

	switch cfg.LLMProvider {
	case ProviderGemini, ProviderGroq:
	default:
		return nil, fmt.Errorf("unknown FUELPLAN_LLM_PROVIDER %q", cfg.LLMProvider)
	}

	return &cfg, nil
}

// RequireTelegram reports the first Telegram variable the bot cannot start without.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// RequireLLM reports the API key missing for the configured provider.
func (c *Config) RequireLLM() error {
	switch c.LLMProvider {
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	}
	return nil
}

// IsAllowedTelegramUser reports whether a Telegram user may talk to the bot.
// An empty allow list admits nobody.
func (c *Config) IsAllowedTelegramUser(id int64) bool {
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}
