package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the cube admin process.
type Config struct {
	// Database
	DatabaseURL string

	Env string

	// Cube backfill pacing
	BackfillBatchSize int
	BackfillPaceMS    int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		Env:               getEnv("ENV", "development"),
		BackfillBatchSize: getEnvInt("CUBE_BACKFILL_BATCH_SIZE", 100),
		BackfillPaceMS:    getEnvInt("CUBE_BACKFILL_PACE_MS", 100),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BackfillBatchSize <= 0 {
		return fmt.Errorf("CUBE_BACKFILL_BATCH_SIZE must be positive")
	}
	if c.BackfillPaceMS < 0 {
		return fmt.Errorf("CUBE_BACKFILL_PACE_MS must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
