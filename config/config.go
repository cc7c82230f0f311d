// Package config centraliza o carregamento de configurações dos binários.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"document-gateway/client/documents/domain"
)

type Config struct {
	EndpointURL    string
	WindowUnit     time.Duration
	WindowCount    int
	RequestLimit   int
	ResetPolicy    domain.ResetPolicy
	AcquireTimeout time.Duration
	HTTPTimeout    time.Duration
	AuthToken      string

	Stats StatsConfig

	MetricsAddr string
	LogLevel    int
}

type StatsConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	Bucket        string
}

// Load lê um .env opcional e depois as variáveis de ambiente DOCS_*.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv lê apenas o ambiente do processo.
func FromEnv() (Config, error) {
	var (
		cfg Config
		err error
	)
	cfg.EndpointURL = getEnv("DOCS_ENDPOINT_URL", "")
	if cfg.WindowUnit, err = getDuration("DOCS_WINDOW_UNIT", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WindowCount, err = getInt("DOCS_WINDOW_COUNT", 1); err != nil {
		return Config{}, err
	}
	if cfg.RequestLimit, err = getInt("DOCS_REQUEST_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.ResetPolicy, err = domain.ParseResetPolicy(strings.ToLower(getEnv("DOCS_RESET_POLICY", "reset"))); err != nil {
		return Config{}, err
	}
	if cfg.AcquireTimeout, err = getDuration("DOCS_ACQUIRE_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = getDuration("DOCS_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	cfg.AuthToken = os.Getenv("DOCS_AUTH_TOKEN")

	stats, err := buildStatsConfig()
	if err != nil {
		return Config{}, err
	}
	cfg.Stats = stats

	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")
	if cfg.LogLevel, err = getInt("LOG_LEVEL", 0); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := (domain.Window{Unit: c.WindowUnit, Count: c.WindowCount}).Validate(); err != nil {
		return err
	}
	if c.RequestLimit < 1 {
		return fmt.Errorf("%w: DOCS_REQUEST_LIMIT must be >= 1", domain.ErrConfiguration)
	}
	if c.Stats.Enabled && strings.TrimSpace(c.Stats.RedisAddr) == "" {
		return fmt.Errorf("%w: DOCS_STATS_REDIS_ADDR is required when DOCS_STATS_ENABLED=true", domain.ErrConfiguration)
	}
	return nil
}

func buildStatsConfig() (StatsConfig, error) {
	var (
		s   StatsConfig
		err error
	)
	if s.Enabled, err = getBool("DOCS_STATS_ENABLED", false); err != nil {
		return StatsConfig{}, err
	}
	s.RedisAddr = getEnv("DOCS_STATS_REDIS_ADDR", "")
	s.RedisPassword = os.Getenv("DOCS_STATS_REDIS_PASSWORD")
	if s.RedisDB, err = getInt("DOCS_STATS_REDIS_DB", 0); err != nil {
		return StatsConfig{}, err
	}
	s.Prefix = getEnv("DOCS_STATS_PREFIX", "documents:stats")
	if s.TTL, err = getDuration("DOCS_STATS_TTL", 24*time.Hour); err != nil {
		return StatsConfig{}, err
	}
	s.Bucket = getEnv("DOCS_STATS_BUCKET", "minute")
	return s, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
