package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string
	SaveDir      string // where YAML saves and exported images live
	DBPath       string // when set, saves go to SQLite here instead
	AssetsDir    string // base civilization images
	TextModel    string // events and loading messages
	ImageModel   string // city illustrations
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	return &Config{
		GeminiAPIKey: apiKey,
		SaveDir:      envOr("ANCIENT_CITIES_SAVE_DIR", ".saves"),
		DBPath:       os.Getenv("ANCIENT_CITIES_DB"),
		AssetsDir:    envOr("ANCIENT_CITIES_ASSETS", "assets/civilizations"),
		TextModel:    envOr("ANCIENT_CITIES_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:   envOr("ANCIENT_CITIES_IMAGE_MODEL", "gemini-3-pro-image"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
