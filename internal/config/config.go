package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime settings, all taken from the environment.
type Config struct {
	RunAddress       string        `env:"RUN_ADDRESS" envDefault:":8080"`
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"supersecret"`
	AssistantBaseURL string        `env:"ASSISTANT_BASE_URL"`
	AssistantAPIKey  string        `env:"ASSISTANT_API_KEY"`
	AssistantTimeout time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"20s"`
	PrefsFile        string        `env:"PREFS_FILE" envDefault:"prefs.json"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
