package config

import (
	"os"

	"github.com/joho/godotenv"
)

const defaultAPIBaseURL = "http://localhost:3001"

type Config struct {
	// APIBaseURL is the Baby Bootcamp backend base URL.
	APIBaseURL string
	// Timezone optionally overrides the resolved local zone (IANA name).
	Timezone string
	LogLevel string
}

// Load reads configuration from the environment, with optional .env support.
// A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		APIBaseURL: getEnv("BOOTCAMP_API_URL", defaultAPIBaseURL),
		Timezone:   getEnv("BOOTCAMP_TIMEZONE", ""),
		LogLevel:   getEnv("BOOTCAMP_LOG_LEVEL", "warn"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
