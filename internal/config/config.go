package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration
type Config struct {
	DatabaseType     string
	DatabasePath     string
	DatabaseURL      string
	LogLevel         string
	Env              string // dev|prod
	Location         *time.Location
	OperationTimeout time.Duration
	WriteWorkers     int
	BcryptCost       int
	LoginAttempts    int
	LoginWindow      time.Duration
	SeedGames        bool
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	loc := time.Local
	if tz := os.Getenv("TZ"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	return &Config{
		DatabaseType:     strings.ToLower(getEnv("DATABASE_TYPE", "sqlite")),
		DatabasePath:     getEnv("DB_PATH", "./vozhat.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Env:              getEnv("ENV", "dev"),
		Location:         loc,
		OperationTimeout: getDuration("OP_TIMEOUT", 10*time.Second),
		WriteWorkers:     getInt("WRITE_WORKERS", 2),
		BcryptCost:       getInt("BCRYPT_COST", bcrypt.DefaultCost),
		LoginAttempts:    getInt("LOGIN_ATTEMPTS", 5),
		LoginWindow:      getDuration("LOGIN_WINDOW", 15*time.Minute),
		SeedGames:        getBool("SEED_GAMES", true),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			return value
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			return value
		}
	}
	return defaultValue
}

// getDuration parses values like "5s" or "15m"
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			return value
		}
	}
	return defaultValue
}
