package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config holds all configuration values, read from environment variables.
type Config struct {
	// HTTP server
	ListenAddr  string
	CORSOrigins []string

	// Postgres
	DatabaseURL string

	// Remote processing service
	ProcessorURL     string
	ProcessorTimeout time.Duration

	// Artifact store
	ArtifactStoreURL string

	// DedupeHybridVINs drops manual VINs already present in the automated
	// result of the same dealership. Off by default: a VIN in both sets is
	// kept twice.
	DedupeHybridVINs bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ListenAddr:  getEnv("ORDERS_LISTEN_ADDR", ":8080"),
		CORSOrigins: strings.Split(getEnv("ORDERS_CORS_ORIGINS", "http://localhost:3000"), ","),

		DatabaseURL: getEnv("ORDERS_DATABASE_URL",
			"host=localhost user=postgres password=postgres dbname=orders port=5432 sslmode=disable"),

		ProcessorURL:     getEnv("ORDERS_PROCESSOR_URL", "http://localhost:9090"),
		ProcessorTimeout: parseDuration(getEnv("ORDERS_PROCESSOR_TIMEOUT", "30s")),

		ArtifactStoreURL: getEnv("ORDERS_ARTIFACT_STORE_URL", "http://localhost:9091"),

		DedupeHybridVINs: getEnv("ORDERS_DEDUPE_HYBRID_VINS", "false") == "true",

		LogFile:  getEnv("ORDERS_LOG_FILE", "/tmp/order-processing.log"),
		LogLevel: parseLogLevel(getEnv("ORDERS_LOG_LEVEL", "INFO")),
	}
}

// InitDB opens the Postgres connection used by every repository.
func InitDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
