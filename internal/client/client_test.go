package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-backend/internal/bootstrap"
	"kyc-backend/internal/client"
	"kyc-backend/internal/inspect/inspecttest"
	"kyc-backend/internal/onboarding"
	"kyc-backend/internal/shared/config"
)

const engineURL = "http://workflow.test/webhook/kyc-onboard"

func newAPI(t *testing.T, relayStatus int) (*client.Client, *httpmock.MockTransport) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(config.Config{
		Env:             "dev",
		WorkflowURL:     engineURL,
		RelayTimeout:    5 * time.Second,
		StoreBackend:    config.StoreMemory,
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
	})
	require.NoError(t, err)

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, engineURL, httpmock.NewStringResponder(relayStatus, `{"started":true}`))
	app.Relay.HTTPClient = &http.Client{Transport: mt}

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	return client.New(srv.URL + "/api/"), mt
}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestClientOnboardingRoundTrip(t *testing.T) {
	api, mt := newAPI(t, http.StatusOK)
	ctx := context.Background()

	created, err := api.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, created.WorkflowID)
	assert.Equal(t, onboarding.PendingPANNumber, created.Onboarding.PANNumber)

	pan, err := client.ReadDocument(writeFixture(t, "pan.png", inspecttest.PNG()))
	require.NoError(t, err)
	assert.Equal(t, "image/png", pan.ContentType)
	aadhaar, err := client.ReadDocument(writeFixture(t, "aadhaar.pdf", inspecttest.PDF()))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", aadhaar.ContentType)

	uploaded, err := api.Upload(ctx, created.WorkflowID, pan, aadhaar)
	require.NoError(t, err)
	assert.Equal(t, onboarding.MsgUploaded, uploaded.Message)
	assert.Equal(t, map[string]any{"started": true}, uploaded.RelayResponse)
	assert.Equal(t, 1, mt.GetTotalCallCount())

	view, err := api.Status(ctx, created.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusProcessing, view.Status)
	assert.Equal(t, client.StepPolling, client.WizardStepFor(&view))

	rec, err := api.Webhook(ctx, created.WorkflowID, map[string]any{"status": "review_required"})
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusReviewRequired, rec.Status)

	review, err := api.List(ctx, "review_required", 0)
	require.NoError(t, err)
	require.Len(t, review, 1)
	assert.Equal(t, created.WorkflowID, review[0].WorkflowID)

	stats, err := api.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, onboarding.Stats{Total: 1, PendingReview: 1}, stats)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	api, _ := newAPI(t, http.StatusBadGateway)
	ctx := context.Background()

	_, err := api.Status(ctx, "missing_1")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, onboarding.MsgNotFound, apiErr.Message)

	created, err := api.Create(ctx)
	require.NoError(t, err)
	pan := client.Document{Name: "pan.png", ContentType: "image/png", Data: inspecttest.PNG()}
	aadhaar := client.Document{Name: "aadhaar.jpg", ContentType: "image/jpeg", Data: inspecttest.JPEG()}

	_, err = api.Upload(ctx, created.WorkflowID, pan, aadhaar)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, onboarding.MsgRelayFailed, apiErr.Message)
	assert.Contains(t, apiErr.Details, "502")

	view, err := api.Status(ctx, created.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusFailed, view.Status)
	assert.Equal(t, client.StepResult, client.WizardStepFor(&view))
	assert.Equal(t, client.OutcomeFailure, client.OutcomeOf(view.Status))
}
