package config_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/trasvase/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabasePath != "trasvase.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "trasvase.db")
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
	if cfg.SigningSecretPrevious != "" {
		t.Errorf("SigningSecretPrevious = %q, want empty", cfg.SigningSecretPrevious)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Errorf("PublicBaseURL = %q, want %q", cfg.PublicBaseURL, "http://localhost:8080")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SIGNING_SECRET", "prod-secret")
	t.Setenv("SIGNING_SECRET_PREVIOUS", "old-secret")
	t.Setenv("TOKEN_TTL", "48h")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.SigningSecret != "prod-secret" {
		t.Errorf("SigningSecret = %q, want %q", cfg.SigningSecret, "prod-secret")
	}
	if cfg.SigningSecretPrevious != "old-secret" {
		t.Errorf("SigningSecretPrevious = %q, want %q", cfg.SigningSecretPrevious, "old-secret")
	}
	if cfg.TokenTTL != 48*time.Hour {
		t.Errorf("TokenTTL = %v, want 48h", cfg.TokenTTL)
	}
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "-1h")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected an error for a negative TOKEN_TTL")
	}
}
