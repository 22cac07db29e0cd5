package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Unexpected default addr: %q", cfg.Addr)
	}
	if cfg.AdminPIN != "2512" {
		t.Errorf("Unexpected default PIN: %q", cfg.AdminPIN)
	}
	if cfg.RevealDwell != 2*time.Second {
		t.Errorf("Unexpected default dwell: %v", cfg.RevealDwell)
	}
	if cfg.SuggestAPIKey != "" {
		t.Errorf("Expected no API key by default, got %q", cfg.SuggestAPIKey)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GIFTEXCHANGE_ADDR", ":9999")
	t.Setenv("GIFTEXCHANGE_EVENT_DATE", "2026-12-20T00:00:00Z")
	t.Setenv("GIFTEXCHANGE_REVEAL_DWELL", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr not taken from env: %q", cfg.Addr)
	}
	if !cfg.EventDate.Equal(time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("EventDate not taken from env: %v", cfg.EventDate)
	}
	if cfg.RevealDwell != 500*time.Millisecond {
		t.Errorf("RevealDwell not taken from env: %v", cfg.RevealDwell)
	}
}
