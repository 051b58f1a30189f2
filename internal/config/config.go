package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string // empty means run on the in-memory store
	AuthSecret  string
	AuthIssuer  string
}

// Load reads .env when present, then the environment. Defaults suit local
// development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AuthSecret:  getenv("AUTH_SECRET", "dev-secret"),
		AuthIssuer:  getenv("AUTH_ISSUER", "tourneyhub-auth"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
