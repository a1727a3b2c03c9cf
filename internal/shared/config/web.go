package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// WebConfig configures the static UI server.
type WebConfig struct {
	Port       string `envconfig:"WEB_PORT" default:"3000"`
	APIBaseURL string `envconfig:"API_BASE_URL"`
	StaticDir  string `envconfig:"STATIC_DIR"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadWeb reads the UI server configuration.
func LoadWeb() (WebConfig, error) {
	loadEnvFiles(".env", "cmd/.env")

	var cfg WebConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return WebConfig{}, fmt.Errorf("process env: %w", err)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = getEnv("VITE_API_BASE_URL", "")
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	return cfg, nil
}
