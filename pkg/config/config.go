package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds process configuration sourced from the environment
type Config struct {
	Port       string
	WebhookURL string
}

// Load reads a .env file if one is present and falls back to process
// environment variables. An absent DISCORD_WEBHOOK_URL disables mutation
// notifications rather than being an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:       getEnv("PORT", "3000"),
		WebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
	}
}

// GetServerAddr returns the listen address for the HTTP/WebSocket server
func (c *Config) GetServerAddr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
