package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, loaded from the environment.
//
// AdminPIN is a shared secret compared in plain text; it deters accidental
// clicks on destructive actions and is not a security boundary.
type Config struct {
	Addr   string `env:"GIFTEXCHANGE_ADDR" envDefault:":8080"`
	DBPath string `env:"GIFTEXCHANGE_DB_PATH" envDefault:"giftexchange.db"`

	AdminPIN  string    `env:"GIFTEXCHANGE_ADMIN_PIN" envDefault:"2512"`
	EventDate time.Time `env:"GIFTEXCHANGE_EVENT_DATE" envDefault:"2024-12-20T00:00:00Z"`

	// RevealDwell is the cosmetic pause spent in the GENERATING step.
	RevealDwell time.Duration `env:"GIFTEXCHANGE_REVEAL_DWELL" envDefault:"2s"`

	SuggestAPIKey string `env:"GIFTEXCHANGE_SUGGEST_API_KEY"`
	SuggestModel  string `env:"GIFTEXCHANGE_SUGGEST_MODEL" envDefault:"gemini-2.5-flash"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
