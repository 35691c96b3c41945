package main

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/store"
)

// setupDatabase opens the Postgres pool and returns it along with the DSN,
// which the change feed listener reuses for its LISTEN connection.
func setupDatabase() (*sql.DB, string, error) {
	cfg := store.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "feudcast"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	database, err := store.Open(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")

	return database, cfg.DSN(), nil
}
