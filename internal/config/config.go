package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	Environment    string
	MigrationsDir  string
	JWTSecret      string
	AccessTokenTTL time.Duration

	// Fallback rates used by the pricing resolver when no entry matches.
	DefaultIndividualPrice float64
	DefaultGroupPrice      float64
}

func Load() (*Config, error) {
	// .env is optional, real environment variables win either way
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		Environment:   os.Getenv("ENV"),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}

	ttlMinutes, err := envFloat("TOKEN_TTL_MINUTES", 3000)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenTTL = time.Duration(ttlMinutes * float64(time.Minute))

	cfg.DefaultIndividualPrice, err = envFloat("DEFAULT_INDIVIDUAL_PRICE", 45.0)
	if err != nil {
		return nil, err
	}
	cfg.DefaultGroupPrice, err = envFloat("DEFAULT_GROUP_PRICE", 28.0)
	if err != nil {
		return nil, err
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
