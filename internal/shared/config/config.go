package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"kyc-backend/internal/shared/telemetry"
)

const defaultWorkflowWebhookURL = "http://localhost:5678/webhook/kyc-onboard"

// Store backends for onboarding records.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds API configuration.
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Env             string        `envconfig:"ENV" default:"dev"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	CORSAllowOrigin []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:5173"`
	WorkflowURL     string        `envconfig:"WORKFLOW_WEBHOOK_URL"`
	RelayTimeout    time.Duration `envconfig:"RELAY_TIMEOUT" default:"30s"`
	StoreBackend    string        `envconfig:"STORE_BACKEND"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	RedisURL        string        `envconfig:"REDIS_URL"`
	ObjectStoreType string        `envconfig:"OBJECT_STORE" default:"local"`
	LocalStoreDir   string        `envconfig:"LOCAL_STORE_DIR" default:"./data"`
	AWSRegion       string        `envconfig:"AWS_REGION"`
	S3Bucket        string        `envconfig:"S3_BUCKET"`
	S3Prefix        string        `envconfig:"S3_PREFIX" default:"kyc-documents"`
	SSEKMSKeyID     string        `envconfig:"SSE_KMS_KEY_ID"`
	EventsQueueURL  string        `envconfig:"EVENTS_SQS_QUEUE_URL"`
	RateLimitRPS    float64       `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
	RateLimitTTL    time.Duration `envconfig:"RATE_LIMIT_TTL" default:"10m"`
	OTLPEndpoint    string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName     string        `envconfig:"SERVICE_NAME" default:"kyc-api"`
}

// Load reads configuration from the environment, after best-effort .env files.
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.CORSAllowOrigin = trimAll(c.CORSAllowOrigin)

	if strings.TrimSpace(c.WorkflowURL) == "" {
		c.WorkflowURL = getEnv("N8N_WEBHOOK_URL", defaultWorkflowWebhookURL)
	}
	if c.RelayTimeout <= 0 {
		c.RelayTimeout = 30 * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(c.StoreBackend)) {
	case "":
		if c.DatabaseURL != "" {
			c.StoreBackend = StorePostgres
		} else {
			c.StoreBackend = StoreMemory
		}
	case StoreMemory, "mem":
		c.StoreBackend = StoreMemory
	case StorePostgres, "pg":
		c.StoreBackend = StorePostgres
	case StoreRedis:
		c.StoreBackend = StoreRedis
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	if c.StoreBackend == StorePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
	}
	if c.StoreBackend == StoreRedis && c.RedisURL == "" {
		return fmt.Errorf("STORE_BACKEND=redis requires REDIS_URL")
	}
	if c.Env == "production" && c.StoreBackend == StoreMemory {
		telemetry.Warn("config.memory_store", map[string]any{
			"env":    c.Env,
			"reason": "records will not survive a restart",
		})
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func trimAll(in []string) []string {
	var out []string
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
