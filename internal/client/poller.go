package client

import (
	"context"
	"time"

	"kyc-backend/internal/onboarding"
)

// DefaultPollInterval is the fixed status polling period of the wizard.
const DefaultPollInterval = 3 * time.Second

// WizardStep is the screen the onboarding wizard shows.
type WizardStep int

const (
	StepUpload  WizardStep = 1
	StepPolling WizardStep = 2
	StepResult  WizardStep = 3
)

// Outcome is the branch of the result screen.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeReview  Outcome = "review"
)

// WizardStepFor picks the screen for the latest view; nil means nothing uploaded yet.
func WizardStepFor(view *onboarding.StatusView) WizardStep {
	switch {
	case view == nil:
		return StepUpload
	case view.Status.Terminal():
		return StepResult
	default:
		return StepPolling
	}
}

// OutcomeOf maps a terminal status to its result branch.
func OutcomeOf(status onboarding.Status) Outcome {
	switch status {
	case onboarding.StatusVerified:
		return OutcomeSuccess
	case onboarding.StatusFailed:
		return OutcomeFailure
	case onboarding.StatusReviewRequired:
		return OutcomeReview
	default:
		return OutcomeNone
	}
}

// StatusFetcher reads the status view of a workflow.
type StatusFetcher interface {
	Status(ctx context.Context, workflowID string) (onboarding.StatusView, error)
}

// Poller polls a workflow until it reaches a terminal status.
type Poller struct {
	Fetcher  StatusFetcher
	Interval time.Duration
	// OnUpdate, if set, receives every fetched view.
	OnUpdate func(onboarding.StatusView)
}

// Wait fetches immediately and then every Interval, returning the first
// terminal view. A fetch error stops polling and is returned.
func (p *Poller) Wait(ctx context.Context, workflowID string) (onboarding.StatusView, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		view, err := p.Fetcher.Status(ctx, workflowID)
		if err != nil {
			return onboarding.StatusView{}, err
		}
		if p.OnUpdate != nil {
			p.OnUpdate(view)
		}
		if view.Status.Terminal() {
			return view, nil
		}

		select {
		case <-ctx.Done():
			return view, ctx.Err()
		case <-ticker.C:
		}
	}
}
