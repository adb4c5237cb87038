package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting. It is built once in main and
// passed down explicitly; nothing below main reads the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	AI       AIConfig
	Sweep    SweepConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	Driver string // sqlite3 or mysql
	DSN    string
	Table  string // metadata table name
}

// RedisConfig controls the signed-URL cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

type StorageConfig struct {
	Bucket          string
	CredentialsFile string // optional; application default credentials otherwise
}

// AIConfig selects the chat-completion provider. An empty APIKey is not a
// startup error: the summarize and translate endpoints report a
// configuration failure instead.
type AIConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

type SweepConfig struct {
	Interval time.Duration // zero disables the orphan sweeper
}

// Load builds the configuration from environment variables and validates
// the values the stores cannot run without.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("DOCSHELF_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DOCSHELF_DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DOCSHELF_DB_DSN", "docshelf.db"),
			Table:  os.Getenv("DOCSHELF_METADATA_TABLE"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("DOCSHELF_REDIS_ADDR"),
			Username: os.Getenv("DOCSHELF_REDIS_USERNAME"),
			Password: os.Getenv("DOCSHELF_REDIS_PASSWORD"),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("DOCSHELF_BUCKET"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		AI: AIConfig{
			Provider: getEnv("DOCSHELF_AI_PROVIDER", "openai"),
			Model:    os.Getenv("DOCSHELF_AI_MODEL"),
			BaseURL:  os.Getenv("DOCSHELF_AI_BASE_URL"),
			APIKey:   os.Getenv("DOCSHELF_AI_TOKEN"),
		},
	}

	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("DOCSHELF_BUCKET must be configured")
	}
	if cfg.Database.Table == "" {
		return nil, fmt.Errorf("DOCSHELF_METADATA_TABLE must be configured")
	}

	if raw := os.Getenv("DOCSHELF_REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse DOCSHELF_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}

	if raw := os.Getenv("DOCSHELF_SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse DOCSHELF_SWEEP_INTERVAL: %w", err)
		}
		cfg.Sweep.Interval = interval
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
