package onboarding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kyc-backend/internal/inspect"
	"kyc-backend/internal/queue"
	"kyc-backend/internal/relay"
	"kyc-backend/internal/shared/metrics"
	"kyc-backend/internal/shared/storage/object"
	"kyc-backend/internal/shared/telemetry"
)

const (
	MsgFilesRequired = "Both PAN and Aadhaar files are required"

	// RelayStep is the errorDetails step recorded when the relay fails.
	RelayStep = "relay"
)

// Event sources stamped on queue messages.
const (
	SourceCreate  = "create"
	SourceUpload  = "upload"
	SourceRelay   = "relay"
	SourceWebhook = "webhook"
)

// Relayer forwards documents to the external workflow engine.
type Relayer interface {
	Relay(ctx context.Context, req relay.Request) (relay.Response, error)
}

// DocumentFile is one uploaded document as received from the client.
type DocumentFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult is returned by a successful Upload.
type UploadResult struct {
	Record        Record
	RelayResponse any
}

// Service contains business logic for onboarding sessions.
type Service struct {
	Repo   Repo
	Store  object.ObjectStore
	Relay  Relayer
	Events queue.Client
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func tracer() trace.Tracer {
	return otel.Tracer("kyc-backend/onboarding")
}

// Create starts a session with placeholder subject fields.
func (s *Service) Create(ctx context.Context) (Record, error) {
	rec, err := s.Repo.Create(ctx, PendingRecord())
	if err != nil {
		return Record{}, fmt.Errorf("create onboarding: %w", err)
	}
	metrics.IncOnboardingCreated()
	telemetry.Info("onboarding.created", map[string]any{
		"workflow_id": rec.WorkflowID,
	})
	s.publish(ctx, rec, "", SourceCreate)
	return rec, nil
}

// Get returns the record for workflowID.
func (s *Service) Get(ctx context.Context, workflowID string) (Record, error) {
	if workflowID == "" {
		return Record{}, ErrNotFound
	}
	return s.Repo.GetByWorkflowID(ctx, workflowID)
}

// Status returns the projected status view for workflowID.
func (s *Service) Status(ctx context.Context, workflowID string) (StatusView, error) {
	rec, err := s.Get(ctx, workflowID)
	if err != nil {
		return StatusView{}, err
	}
	return Project(rec), nil
}

// Upload validates both documents, stores them, marks the record processing
// and relays the documents once. A relay failure marks the record failed and
// returns a *RelayError.
func (s *Service) Upload(ctx context.Context, workflowID string, pan, aadhaar *DocumentFile) (UploadResult, error) {
	ctx, span := tracer().Start(ctx, "onboarding.upload")
	defer span.End()
	span.SetAttributes(attribute.String("kyc.workflow_id", workflowID))

	if pan == nil || aadhaar == nil {
		metrics.IncUploadRejected("missing_file")
		return UploadResult{}, invalid("files", MsgFilesRequired)
	}
	if err := checkDocument("panFile", pan); err != nil {
		return UploadResult{}, err
	}
	if err := checkDocument("aadhaarFile", aadhaar); err != nil {
		return UploadResult{}, err
	}

	prev, err := s.Get(ctx, workflowID)
	if err != nil {
		return UploadResult{}, err
	}

	patch := Patch{"status": string(StatusProcessing)}
	if s.Store != nil {
		panObj, err := s.store(ctx, workflowID, pan)
		if err != nil {
			return UploadResult{}, err
		}
		aadhaarObj, err := s.store(ctx, workflowID, aadhaar)
		if err != nil {
			return UploadResult{}, err
		}
		patch["panFileUrl"] = panObj.URL
		patch["aadhaarFileUrl"] = aadhaarObj.URL
	}

	rec, err := s.Repo.Update(ctx, workflowID, patch)
	if err != nil {
		return UploadResult{}, fmt.Errorf("mark processing: %w", err)
	}
	s.publish(ctx, rec, prev.Status, SourceUpload)

	// The relay outlives a disconnecting client.
	relayCtx := context.WithoutCancel(ctx)
	start := time.Now()
	resp, relayErr := s.Relay.Relay(relayCtx, relay.Request{
		WorkflowID: workflowID,
		PAN:        relay.File{Name: pan.Name, ContentType: pan.ContentType, Data: pan.Data},
		Aadhaar:    relay.File{Name: aadhaar.Name, ContentType: aadhaar.ContentType, Data: aadhaar.Data},
	})
	if relayErr != nil {
		metrics.ObserveRelay(metrics.RelayFailed, start)
		span.RecordError(relayErr)
		span.SetStatus(codes.Error, relayErr.Error())
		s.markRelayFailed(relayCtx, workflowID, relayErr)
		return UploadResult{}, &RelayError{Cause: relayErr}
	}
	metrics.ObserveRelay(metrics.RelayOK, start)

	telemetry.Info("onboarding.upload.relayed", map[string]any{
		"workflow_id":   workflowID,
		"relay_status":  resp.StatusCode,
		"pan_bytes":     len(pan.Data),
		"aadhaar_bytes": len(aadhaar.Data),
	})
	return UploadResult{Record: rec, RelayResponse: resp.Body}, nil
}

func checkDocument(field string, doc *DocumentFile) error {
	if _, err := inspect.Check(inspect.Document{
		Name:        doc.Name,
		ContentType: doc.ContentType,
		Data:        doc.Data,
	}); err != nil {
		metrics.IncUploadRejected(field)
		return invalid(field, fmt.Sprintf("%s: %s", field, err.Error()))
	}
	return nil
}

func (s *Service) store(ctx context.Context, workflowID string, doc *DocumentFile) (object.Object, error) {
	obj, err := s.Store.Save(ctx, workflowID, doc.Name, doc.ContentType, bytes.NewReader(doc.Data))
	if err != nil {
		return object.Object{}, fmt.Errorf("store %s: %w", doc.Name, err)
	}
	return obj, nil
}

func (s *Service) markRelayFailed(ctx context.Context, workflowID string, cause error) {
	rec, err := s.Repo.Update(ctx, workflowID, Patch{
		"status": string(StatusFailed),
		"errorDetails": map[string]any{
			"step":      RelayStep,
			"error":     cause.Error(),
			"timestamp": s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		telemetry.Error("onboarding.relay.mark_failed", map[string]any{
			"workflow_id": workflowID,
			"error":       err.Error(),
		})
		return
	}
	telemetry.Warn("onboarding.relay.failed", map[string]any{
		"workflow_id": workflowID,
		"error":       cause.Error(),
	})
	s.publish(ctx, rec, StatusProcessing, SourceRelay)
}

// ApplyWebhook merges a workflow engine callback into the record.
func (s *Service) ApplyWebhook(ctx context.Context, workflowID string, patch Patch) (Record, error) {
	ctx, span := tracer().Start(ctx, "onboarding.webhook")
	defer span.End()
	span.SetAttributes(attribute.String("kyc.workflow_id", workflowID))

	prev, err := s.Get(ctx, workflowID)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.Repo.Update(ctx, workflowID, patch)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidInput) {
			span.RecordError(err)
		}
		return Record{}, err
	}

	metrics.IncWebhookUpdate(string(rec.Status))
	telemetry.Info("onboarding.webhook.applied", map[string]any{
		"workflow_id": workflowID,
		"status":      rec.Status,
		"keys":        len(patch),
	})
	if _, ok := patch.Status(); ok {
		s.publish(ctx, rec, prev.Status, SourceWebhook)
	}
	return rec, nil
}

// List returns records with the given status, or the most recent limit
// records when status is empty.
func (s *Service) List(ctx context.Context, status string, limit int) ([]Record, error) {
	if status != "" {
		return s.Repo.ListByStatus(ctx, Status(status))
	}
	if limit < 0 {
		limit = 0
	}
	return s.Repo.ListRecent(ctx, limit)
}

// Stats counts records for the dashboard. verifiedToday uses local midnight.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.Repo.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	return computeStats(all, s.now()), nil
}

func computeStats(records []Record, now time.Time) Stats {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	stats := Stats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case StatusVerified:
			if !rec.UpdatedAt.Before(midnight) {
				stats.VerifiedToday++
			}
		case StatusReviewRequired:
			stats.PendingReview++
		case StatusProcessing:
			stats.Processing++
		}
	}
	return stats
}

func (s *Service) publish(ctx context.Context, rec Record, previous Status, source string) {
	if s.Events == nil {
		return
	}
	msg := queue.Message{
		WorkflowID:     rec.WorkflowID,
		Status:         string(rec.Status),
		PreviousStatus: string(previous),
		Source:         source,
		RequestID:      RequestIDFromContext(ctx),
		EnqueuedAt:     s.now().UTC().Format(time.RFC3339),
		Version:        queue.MessageVersion,
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("onboarding.event.publish_failed", map[string]any{
			"workflow_id": rec.WorkflowID,
			"status":      rec.Status,
			"error":       err.Error(),
		})
	}
}

type requestIDKey struct{}

// WithRequestID stores the inbound request id for event correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
