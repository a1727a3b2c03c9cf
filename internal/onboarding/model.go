package onboarding

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an onboarding record.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusVerified       Status = "verified"
	StatusFailed         Status = "failed"
	StatusReviewRequired Status = "review_required"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusVerified, StatusFailed, StatusReviewRequired:
		return true
	default:
		return false
	}
}

// Terminal reports whether the external workflow has finished with this record.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusReviewRequired
}

// Placeholders stored at session creation, before OCR fills in the subject.
const (
	PendingClientName    = "Pending OCR Extraction"
	PendingEmail         = "pending@ocr.extraction"
	PendingMobile        = "0000000000"
	PendingPANNumber     = "PENDING00X"
	PendingAadhaarNumber = "000000000000"
)

// Record is one onboarding attempt, keyed externally by WorkflowID.
type Record struct {
	ID                    string         `json:"id"`
	WorkflowID            string         `json:"workflowId"`
	ClientName            string         `json:"clientName"`
	Email                 string         `json:"email"`
	Mobile                string         `json:"mobile"`
	PANNumber             string         `json:"panNumber"`
	AadhaarNumber         string         `json:"aadhaarNumber"`
	PANFileURL            *string        `json:"panFileUrl"`
	AadhaarFileURL        *string        `json:"aadhaarFileUrl"`
	Status                Status         `json:"status"`
	BasicValidationPassed bool           `json:"basicValidationPassed"`
	OCRValidationPassed   bool           `json:"ocrValidationPassed"`
	PANAPIValid           bool           `json:"panApiValid"`
	AllValidationsPassed  bool           `json:"allValidationsPassed"`
	OCRData               map[string]any `json:"ocrData"`
	VerificationData      map[string]any `json:"verificationData"`
	ErrorDetails          map[string]any `json:"errorDetails"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`

	// Extra holds webhook keys outside the known schema; they are emitted inline.
	Extra map[string]any `json:"-"`
}

// PendingRecord returns the fields of a freshly created session.
func PendingRecord() Record {
	return Record{
		ClientName:    PendingClientName,
		Email:         PendingEmail,
		Mobile:        PendingMobile,
		PANNumber:     PendingPANNumber,
		AadhaarNumber: PendingAadhaarNumber,
		Status:        StatusPending,
	}
}

// NewRecord assigns identity and timestamps to fields. workflowId is
// "<id>_<unix millis>"; the uuid part keeps it unique within a millisecond.
func NewRecord(fields Record, now time.Time) Record {
	rec := fields.Clone()
	rec.ID = uuid.NewString()
	rec.WorkflowID = fmt.Sprintf("%s_%d", rec.ID, now.UnixMilli())
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec
}

// Clone returns a deep copy so callers never share maps with a store.
func (r Record) Clone() Record {
	out := r
	if r.PANFileURL != nil {
		v := *r.PANFileURL
		out.PANFileURL = &v
	}
	if r.AadhaarFileURL != nil {
		v := *r.AadhaarFileURL
		out.AadhaarFileURL = &v
	}
	out.OCRData = cloneMap(r.OCRData)
	out.VerificationData = cloneMap(r.VerificationData)
	out.ErrorDetails = cloneMap(r.ErrorDetails)
	out.Extra = cloneMap(r.Extra)
	return out
}

type recordAlias Record

var knownKeys = map[string]struct{}{
	"id": {}, "workflowId": {}, "clientName": {}, "email": {}, "mobile": {},
	"panNumber": {}, "aadhaarNumber": {}, "panFileUrl": {}, "aadhaarFileUrl": {},
	"status": {}, "basicValidationPassed": {}, "ocrValidationPassed": {},
	"panApiValid": {}, "allValidationsPassed": {}, "ocrData": {},
	"verificationData": {}, "errorDetails": {}, "createdAt": {}, "updatedAt": {},
}

// MarshalJSON emits known fields plus Extra keys inline.
func (r Record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(recordAlias(r))
	if err != nil || len(r.Extra) == 0 {
		return base, err
	}
	merged := make(map[string]json.RawMessage, len(knownKeys)+len(r.Extra))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, known := knownKeys[k]; known {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal extra field %s: %w", k, err)
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads known fields and keeps the rest in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var alias recordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*r = Record(alias)
	r.Extra = nil
	for k, v := range all {
		if _, known := knownKeys[k]; known {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return nil
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// Stats summarizes records for the dashboard.
type Stats struct {
	Total         int `json:"total"`
	VerifiedToday int `json:"verifiedToday"`
	PendingReview int `json:"pendingReview"`
	Processing    int `json:"processing"`
}
