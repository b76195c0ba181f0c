package config

import (
	"os"
	"testing"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("DATABASE_NAME", "tracker")
	t.Setenv("YOUTUBE_API_KEY", "key")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
}

func TestNewConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("expected UTC timezone, got %q", cfg.Timezone)
	}
	if cfg.ImportMaxPages != 100 {
		t.Fatalf("expected 100 max pages, got %d", cfg.ImportMaxPages)
	}
	if cfg.NotificationsEnabled() {
		t.Fatal("expected notifications disabled without telegram settings")
	}
}

func TestNewConfigRejectsUnknownTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestNewConfigRejectsShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_SECRET", "short")

	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error for short session secret")
	}
}

func TestNewConfigRequiresDatabase(t *testing.T) {
	setRequired(t)
	// envconfig treats a set-but-empty variable as present, so unset it
	os.Unsetenv("DATABASE_URL")

	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}
