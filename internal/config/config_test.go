package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PresencePoint/PP-Backend/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PP_CONFIG_FILE", "PORT", "CHECKIN_RATE_PER_SECOND", "CHECKIN_BURST",
		"REDIS_ADDR", "REDIS_PASSWORD", "OCCUPANCY_CACHE_TTL", "INSIGHT_WINDOW_DAYS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5050" {
		t.Errorf("Port: expected 5050, got %s", cfg.Port)
	}
	if cfg.InsightWindowDays != 7 {
		t.Errorf("InsightWindowDays: expected 7, got %d", cfg.InsightWindowDays)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr: expected empty (cache disabled), got %s", cfg.RedisAddr)
	}
}

func TestLoad_YAMLFileThenEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "pp.yaml")
	body := "port: \"6000\"\ninsight_window_days: 14\noccupancy_cache_ttl: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PP_CONFIG_FILE", path)
	t.Setenv("PORT", "7000") // env wins over file

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port: expected env override 7000, got %s", cfg.Port)
	}
	if cfg.InsightWindowDays != 14 {
		t.Errorf("InsightWindowDays: expected 14 from file, got %d", cfg.InsightWindowDays)
	}
	if cfg.OccupancyCacheTTL != 30*time.Second {
		t.Errorf("OccupancyCacheTTL: expected 30s, got %s", cfg.OccupancyCacheTTL)
	}
}

func TestLoad_RejectsInvalidWindow(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSIGHT_WINDOW_DAYS", "0")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for zero window, got nil")
	}
}
