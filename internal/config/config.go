// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service settings. Every field has an environment
// variable and a development-friendly default; production deployments
// must override the secrets.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"trasvase.db"`

	// SigningSecret signs confirmation tokens. SigningSecretPrevious keeps
	// tokens minted before a rotation verifiable until they expire.
	SigningSecret         string `env:"SIGNING_SECRET" envDefault:"dev-signing-secret"`
	SigningSecretPrevious string `env:"SIGNING_SECRET_PREVIOUS"`

	// JWTSecret signs API bearer tokens, independent of the token secret.
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-jwt-secret"`

	// TokenTTL is the confirmation token lifetime.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// PublicBaseURL is the externally reachable address printed into
	// confirmation URLs on order documents.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL must be positive, got %v", cfg.TokenTTL)
	}
	return cfg, nil
}
