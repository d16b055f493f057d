// Package config loads application settings from the environment. A .env file in the
// working directory is read first when present; real environment variables win.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	QueryTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// EventsConfig controls how event instants are interpreted and listed.
type EventsConfig struct {
	Location  *time.Location
	SortOrder string // "desc" or "asc"
}

type LimitsConfig struct {
	RPS            float64
	Burst          int
	AuthRPS        float64
	AuthBurst      int
	DailyQuota     int
	QuotaWindow    time.Duration
	LimiterIdleTTL time.Duration
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Events   EventsConfig
	Limits   LimitsConfig
	LogLevel slog.Level
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment, reporting every problem at once.
func FromEnv() (*Config, error) {
	var problems []string

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			DSN:          requireEnv("PG_DSN", &problems),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20, &problems),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10, &problems),
			QueryTimeout: getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second, &problems),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0, &problems),
		},
		Auth: AuthConfig{
			JWTSecret:  requireEnv("JWT_SECRET", &problems),
			Issuer:     getEnv("JWT_ISSUER", "eventhub"),
			AccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute, &problems),
			RefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour, &problems),
			BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost, &problems),
		},
		Limits: LimitsConfig{
			RPS:            getEnvFloat("RATE_LIMIT_RPS", 20, &problems),
			Burst:          getEnvInt("RATE_LIMIT_BURST", 40, &problems),
			AuthRPS:        getEnvFloat("AUTH_RATE_LIMIT_RPS", 0.5, &problems),
			AuthBurst:      getEnvInt("AUTH_RATE_LIMIT_BURST", 2, &problems),
			DailyQuota:     getEnvInt("DAILY_QUOTA", 2000, &problems),
			QuotaWindow:    24 * time.Hour,
			LimiterIdleTTL: 10 * time.Minute,
		},
	}

	tzName := getEnv("EVENT_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid EVENT_TIMEZONE %q: %v", tzName, err))
		loc = time.UTC
	}
	cfg.Events.Location = loc

	order := strings.ToLower(getEnv("EVENT_SORT_ORDER", "desc"))
	if order != "asc" && order != "desc" {
		problems = append(problems, fmt.Sprintf("invalid EVENT_SORT_ORDER %q: expected asc or desc", order))
		order = "desc"
	}
	cfg.Events.SortOrder = order

	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if cfg.Auth.AccessTTL <= 0 || cfg.Auth.RefreshTTL <= 0 {
		problems = append(problems, "JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL: %v", err))
		level = slog.LevelInfo
	}
	cfg.LogLevel = level

	if len(problems) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func requireEnv(key string, problems *[]string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		*problems = append(*problems, fmt.Sprintf("missing required environment variable: %s", key))
	}
	return v
}

func getEnvInt(key string, def int, problems *[]string) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected integer, got %q", key, v))
		return def
	}
	return n
}

func getEnvFloat(key string, def float64, problems *[]string) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected number, got %q", key, v))
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration, problems *[]string) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected duration, got %q", key, v))
		return def
	}
	return d
}
