package config

import (
	"os"
)

const (
	defaultDBPath  = "./beefvalue.db"
	defaultPort    = "8080"
	defaultRateURL = "https://dolarapi.com/v1/dolares/oficial"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	DBPath  string
	Port    string
	RateURL string
	Env     string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		DBPath:  os.Getenv("DB_PATH"),
		Port:    os.Getenv("PORT"),
		RateURL: os.Getenv("RATE_URL"),
		Env:     os.Getenv("APP_ENV"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.RateURL == "" {
		cfg.RateURL = defaultRateURL
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	return cfg
}

// IsDev reports whether the app runs in local development mode, where
// migrations are applied automatically on startup.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}
