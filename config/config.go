package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Upload   UploadConfig

	// RemoveDelay is how long after a room deletion the removeRoom
	// broadcast is held back, letting in-flight leave handling settle.
	RemoveDelay time.Duration
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

type SessionConfig struct {
	Secret string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// Load reads configuration from the environment, falling back to an
// optional .env file and built-in defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASS", "postgres"),
			Name:     getEnvOrDefault("DB_NAME", "gifchat"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
		},
		Session: SessionConfig{
			Secret: getEnvOrDefault("SESSION_SECRET", "gifchat-secret"),
		},
		Upload: UploadConfig{
			Dir:      getEnvOrDefault("UPLOAD_DIR", "uploads"),
			MaxBytes: getInt64OrDefault("UPLOAD_MAX_BYTES", 5*1024*1024),
		},
		RemoveDelay: getDurationOrDefault("REMOVE_DELAY", "2s"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("invalid integer in environment")
	}
	return n
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("invalid duration in environment")
	}
	return d
}
