package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "data/fuelplan.db", cfg.DatabasePath)
		assert.Equal(t, time.Second, cfg.SaveDebounce)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "8080", cfg.Port)
		assert.Empty(t, cfg.JWTSecret)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("FUELPLAN_DB_PATH", "/tmp/plan.db")
		t.Setenv("FUELPLAN_SAVE_DEBOUNCE", "250ms")
		t.Setenv("FUELPLAN_LLM_PROVIDER", "groq")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "11,22")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "/tmp/plan.db", cfg.DatabasePath)
		assert.Equal(t, 250*time.Millisecond, cfg.SaveDebounce)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, []int64{11, 22}, cfg.TelegramAllowedUserIDs)
		assert.True(t, cfg.IsAllowedTelegramUser(22))
		assert.False(t, cfg.IsAllowedTelegramUser(33))
	})

	t.Run("NonPositiveDebounce", func(t *testing.T) {
		t.Setenv("FUELPLAN_SAVE_DEBOUNCE", "0s")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FUELPLAN_SAVE_DEBOUNCE")
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		t.Setenv("FUELPLAN_LLM_PROVIDER", "parrot")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, `unknown FUELPLAN_LLM_PROVIDER "parrot"`, err.Error())
	})
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{}
	require.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_BOT_TOKEN environment variable not set")

	cfg.TelegramBotToken = "token"
	require.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_WEBHOOK_URL environment variable not set")

	cfg.TelegramWebhookURL = "https://example.test/webhook"
	require.NoError(t, cfg.RequireTelegram())
}

func TestRequireLLM(t *testing.T) {
	cfg := &Config{LLMProvider: ProviderGemini}
	require.EqualError(t, cfg.RequireLLM(), "GEMINI_API_KEY environment variable not set")

	cfg.LLMProvider = ProviderGroq
	require.EqualError(t, cfg.RequireLLM(), "GROQ_API_KEY environment variable not set")

	cfg.GroqAPIKey = "key"
	require.NoError(t, cfg.RequireLLM())
}
