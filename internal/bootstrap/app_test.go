package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"kyc-backend/internal/onboarding"
	"kyc-backend/internal/shared/config"
)

func TestBuildDefaultsToMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := Build(config.Config{LocalStoreDir: t.TempDir(), WorkflowURL: "http://localhost:5678/webhook/kyc-onboard"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if _, ok := app.OnboardingRepo.(*onboarding.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.OnboardingRepo)
	}
	if app.Queue != nil {
		t.Fatalf("expected no events queue without EVENTS_SQS_QUEUE_URL")
	}
	if app.Router == nil || app.OnboardingHandler == nil {
		t.Fatalf("expected router and handler")
	}
	if app.Relay.URL != "http://localhost:5678/webhook/kyc-onboard" {
		t.Fatalf("unexpected relay url %q", app.Relay.URL)
	}
}

func TestBuildRedisBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)

	app, err := Build(config.Config{
		StoreBackend:  config.StoreRedis,
		RedisURL:      "redis://" + mr.Addr() + "/0",
		LocalStoreDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if _, ok := app.OnboardingRepo.(*onboarding.RedisRepo); !ok {
		t.Fatalf("expected redis repo, got %T", app.OnboardingRepo)
	}
	rec, err := app.OnboardingService.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !mr.Exists("kyc:onboarding:" + rec.WorkflowID) {
		t.Fatalf("expected record key in redis")
	}
}

func TestBuildFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{name: "unknown backend", cfg: config.Config{StoreBackend: "cassandra"}, wantErr: "unsupported store backend"},
		{name: "bad redis url", cfg: config.Config{StoreBackend: config.StoreRedis, RedisURL: "http://nope"}, wantErr: "parse REDIS_URL"},
		{name: "s3 without bucket", cfg: config.Config{ObjectStoreType: "s3"}, wantErr: "S3_BUCKET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
