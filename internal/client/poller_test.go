package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-backend/internal/onboarding"
)

type scriptedFetcher struct {
	statuses []onboarding.Status
	calls    int
	err      error
}

func (s *scriptedFetcher) Status(ctx context.Context, workflowID string) (onboarding.StatusView, error) {
	if s.err != nil {
		return onboarding.StatusView{}, s.err
	}
	i := s.calls
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	s.calls++
	return onboarding.StatusView{WorkflowID: workflowID, Status: s.statuses[i]}, nil
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	for _, terminal := range []onboarding.Status{onboarding.StatusVerified, onboarding.StatusFailed, onboarding.StatusReviewRequired} {
		t.Run(string(terminal), func(t *testing.T) {
			fetcher := &scriptedFetcher{statuses: []onboarding.Status{
				onboarding.StatusPending, onboarding.StatusProcessing, terminal, onboarding.StatusProcessing,
			}}
			var seen []onboarding.Status
			p := &Poller{
				Fetcher:  fetcher,
				Interval: time.Millisecond,
				OnUpdate: func(v onboarding.StatusView) { seen = append(seen, v.Status) },
			}

			view, err := p.Wait(context.Background(), "wf_1")
			require.NoError(t, err)
			assert.Equal(t, terminal, view.Status)
			assert.Equal(t, 3, fetcher.calls)
			assert.Len(t, seen, 3)
		})
	}
}

func TestPollerHonoursContext(t *testing.T) {
	fetcher := &scriptedFetcher{statuses: []onboarding.Status{onboarding.StatusProcessing}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := &Poller{Fetcher: fetcher, Interval: time.Hour}
	view, err := p.Wait(ctx, "wf_1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, onboarding.StatusProcessing, view.Status)
	assert.Equal(t, 1, fetcher.calls)
}

func TestPollerReturnsFetchError(t *testing.T) {
	boom := errors.New("connection refused")
	p := &Poller{Fetcher: &scriptedFetcher{err: boom}, Interval: time.Millisecond}
	_, err := p.Wait(context.Background(), "wf_1")
	assert.ErrorIs(t, err, boom)
}

func TestWizardStepFor(t *testing.T) {
	assert.Equal(t, StepUpload, WizardStepFor(nil))
	assert.Equal(t, StepPolling, WizardStepFor(&onboarding.StatusView{Status: onboarding.StatusPending}))
	assert.Equal(t, StepPolling, WizardStepFor(&onboarding.StatusView{Status: onboarding.StatusProcessing}))
	assert.Equal(t, StepResult, WizardStepFor(&onboarding.StatusView{Status: onboarding.StatusVerified}))
	assert.Equal(t, StepResult, WizardStepFor(&onboarding.StatusView{Status: onboarding.StatusReviewRequired}))

	assert.Equal(t, OutcomeSuccess, OutcomeOf(onboarding.StatusVerified))
	assert.Equal(t, OutcomeReview, OutcomeOf(onboarding.StatusReviewRequired))
	assert.Equal(t, OutcomeNone, OutcomeOf(onboarding.StatusProcessing))
}

func TestDefaultPollInterval(t *testing.T) {
	assert.Equal(t, 3*time.Second, DefaultPollInterval)
}
