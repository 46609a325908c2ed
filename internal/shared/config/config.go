package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration. Everything is injected through
// environment variables (a .env file is honored when present) with sane
// defaults for local development.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWTSecret signs and verifies the HS256 bearer tokens.
	JWTSecret string
	JWTTTL    time.Duration

	// RedisAddr enables the cross-node event bridge when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// BidMaxRetries bounds the optimistic-concurrency retry loop in the
	// place-bid path before a stale-bid error is surfaced to the caller.
	BidMaxRetries int
}

// Load reads and validates the configuration, applying defaults for
// anything missing.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":9000"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "bidstation"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTL:        24 * time.Hour,
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,
		BidMaxRetries: 3,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be empty")
	}

	ttlHours, err := getEnvInt("JWT_TTL_HOURS", int(cfg.JWTTTL.Hours()))
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWT_TTL_HOURS: %w", err)
	}
	if ttlHours <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL_HOURS must be > 0")
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	retries, err := getEnvInt("BID_MAX_RETRIES", cfg.BidMaxRetries)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BID_MAX_RETRIES: %w", err)
	}
	if retries <= 0 {
		return Config{}, fmt.Errorf("BID_MAX_RETRIES must be > 0")
	}
	cfg.BidMaxRetries = retries

	return cfg, nil
}

// PostgresDSN builds the connection URL consumed by both pgxpool and
// golang-migrate.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
