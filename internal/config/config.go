package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds the runtime knobs for the presence backend. Everything has a
// sane default so a bare `go run .` against a local database works.
type Config struct {
	Port string `yaml:"port"`

	// Per-IP token bucket on the check-in route.
	CheckinRatePerSecond float64 `yaml:"checkin_rate_per_second"`
	CheckinBurst         int     `yaml:"checkin_burst"`

	// Optional Redis occupancy snapshot cache; empty Addr disables it.
	RedisAddr         string        `yaml:"redis_addr"`
	RedisPassword     string        `yaml:"redis_password"`
	OccupancyCacheTTL time.Duration `yaml:"occupancy_cache_ttl"`

	// Default rolling window for insight generation.
	InsightWindowDays int `yaml:"insight_window_days"`
}

var ErrInvalidWindow = errors.New("insight_window_days must be >= 1")

func defaults() Config {
	return Config{
		Port:                 "5050",
		CheckinRatePerSecond: 5,
		CheckinBurst:         10,
		OccupancyCacheTTL:    10 * time.Second,
		InsightWindowDays:    7,
	}
}

// Load builds the config from defaults, an optional YAML file named by
// PP_CONFIG_FILE, and finally environment variable overrides, in that order.
//
// Environment variables:
//   - PORT
//   - CHECKIN_RATE_PER_SECOND, CHECKIN_BURST
//   - REDIS_ADDR, REDIS_PASSWORD, OCCUPANCY_CACHE_TTL (Go duration, e.g. "15s")
//   - INSIGHT_WINDOW_DAYS
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("PP_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("CHECKIN_RATE_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("CHECKIN_RATE_PER_SECOND: %w", err)
		}
		cfg.CheckinRatePerSecond = f
	}
	if v := os.Getenv("CHECKIN_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("CHECKIN_BURST: %w", err)
		}
		cfg.CheckinBurst = n
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("OCCUPANCY_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("OCCUPANCY_CACHE_TTL: %w", err)
		}
		cfg.OccupancyCacheTTL = d
	}
	if v := os.Getenv("INSIGHT_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("INSIGHT_WINDOW_DAYS: %w", err)
		}
		cfg.InsightWindowDays = n
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.InsightWindowDays < 1 {
		return ErrInvalidWindow
	}
	if c.CheckinRatePerSecond <= 0 || c.CheckinBurst < 1 {
		return errors.New("check-in rate limit must be positive")
	}
	return nil
}
