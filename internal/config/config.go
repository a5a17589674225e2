package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath    string
	SalesFilePath   string // Seed dataset ingested on startup when the store is empty
	LogLevel        string
	Port            int
	DevMode         bool
	DefaultHorizon  int    // Days to forecast when the request does not specify one
	MaxHorizon      int    // Hard cap on the forecast horizon
	SeasonalPeriod  int    // Seasonal period in days for the SARIMA search
	SearchStrategy  string // "grid", "auto" or "fixed"
	FitWorkers      int    // Concurrent candidate fits during model selection
	FitTimeoutSecs  int    // Per-candidate fit timeout
	RetrainSchedule string // Cron expression for the cache-warming job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/ventas.db"),
		SalesFilePath:   getEnv("SALES_FILE_PATH", "./data/ventas_raw.xlsx"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultHorizon:  getEnvAsInt("DEFAULT_HORIZON", 14),
		MaxHorizon:      getEnvAsInt("MAX_HORIZON", 60),
		SeasonalPeriod:  getEnvAsInt("SEASONAL_PERIOD", 7),
		SearchStrategy:  getEnv("SEARCH_STRATEGY", "grid"),
		FitWorkers:      getEnvAsInt("FIT_WORKERS", 4),
		FitTimeoutSecs:  getEnvAsInt("FIT_TIMEOUT_SECS", 10),
		RetrainSchedule: getEnv("RETRAIN_SCHEDULE", "@daily"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.SeasonalPeriod < 2 {
		return fmt.Errorf("SEASONAL_PERIOD must be at least 2, got %d", c.SeasonalPeriod)
	}

	if c.DefaultHorizon < 1 || c.DefaultHorizon > c.MaxHorizon {
		return fmt.Errorf("DEFAULT_HORIZON must be between 1 and %d, got %d", c.MaxHorizon, c.DefaultHorizon)
	}

	switch c.SearchStrategy {
	case "grid", "auto", "fixed":
	default:
		return fmt.Errorf("SEARCH_STRATEGY must be one of grid, auto, fixed, got %q", c.SearchStrategy)
	}

	if c.FitWorkers < 1 {
		return fmt.Errorf("FIT_WORKERS must be at least 1, got %d", c.FitWorkers)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
