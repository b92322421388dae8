package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DISCORD_WEBHOOK_URL", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.GetServerAddr())
	assert.Empty(t, cfg.WebhookURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/api/webhooks/1/abc")

	cfg := Load()

	assert.Equal(t, ":8081", cfg.GetServerAddr())
	assert.Equal(t, "https://discord.example/api/webhooks/1/abc", cfg.WebhookURL)
}
