package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relay outcomes.
const (
	RelayOK     = "ok"
	RelayFailed = "failed"
)

var (
	onboardingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kyc_onboardings_created_total",
		Help: "Total onboarding sessions created",
	})
	uploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyc_uploads_rejected_total",
		Help: "Document uploads rejected before relay, by reason",
	}, []string{"reason"})
	relayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyc_relay_requests_total",
		Help: "Workflow relay calls by outcome",
	}, []string{"outcome"})
	relayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kyc_relay_duration_seconds",
		Help:    "Duration of workflow relay calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	webhookUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyc_webhook_updates_total",
		Help: "Webhook updates applied, by resulting status",
	}, []string{"status"})
)

// IncOnboardingCreated records a new onboarding session.
func IncOnboardingCreated() {
	onboardingsCreated.Inc()
}

// IncUploadRejected records an upload refused by validation.
func IncUploadRejected(reason string) {
	uploadsRejected.WithLabelValues(reason).Inc()
}

// ObserveRelay records one relay call started at start.
func ObserveRelay(outcome string, start time.Time) {
	relayTotal.WithLabelValues(outcome).Inc()
	relayDuration.Observe(time.Since(start).Seconds())
}

// IncWebhookUpdate records an applied webhook update.
func IncWebhookUpdate(status string) {
	webhookUpdates.WithLabelValues(status).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
