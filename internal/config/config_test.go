package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsEnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	env := "JWT_SECRET=from-file\nSWEEP_INTERVAL=30s\nREDIS_DB=2\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.JWTSecret)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("expected 30s sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.RedisDB != 2 {
		t.Fatalf("expected redis db 2, got %d", cfg.RedisDB)
	}
	if cfg.Port != "8080" || cfg.CookieName != "token" || cfg.EventsExchange != "cafe.events" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Fatalf("expected default token ttl, got %s", cfg.TokenTTL)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("expected env to win, got %q", cfg.Port)
	}
}
