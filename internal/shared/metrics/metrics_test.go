package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(relayTotal.WithLabelValues(RelayFailed))
	ObserveRelay(RelayFailed, time.Now())
	after := testutil.ToFloat64(relayTotal.WithLabelValues(RelayFailed))
	if after != before+1 {
		t.Fatalf("expected relay failed counter to grow by 1, got %v -> %v", before, after)
	}

	beforeCreated := testutil.ToFloat64(onboardingsCreated)
	IncOnboardingCreated()
	if got := testutil.ToFloat64(onboardingsCreated); got != beforeCreated+1 {
		t.Fatalf("expected created counter %v, got %v", beforeCreated+1, got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncWebhookUpdate("verified")

	r := gin.New()
	r.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `kyc_webhook_updates_total{status="verified"}`) {
		t.Fatalf("expected webhook counter in output")
	}
}
