package onboarding

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Patch is a shallow partial update, keyed by the record's JSON field names.
type Patch map[string]any

var immutableKeys = map[string]struct{}{
	"id":         {},
	"workflowId": {},
	"createdAt":  {},
	"updatedAt":  {},
}

// Status returns the status carried by the patch, if any.
func (p Patch) Status() (Status, bool) {
	raw, ok := p["status"]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return Status(s), true
}

// Apply merges p into a copy of r and stamps UpdatedAt. Known keys replace
// the typed field wholesale; unknown keys land in Extra. A value that does
// not fit its field rejects the whole patch.
func (r Record) Apply(p Patch, now time.Time) (Record, error) {
	next := r.Clone()

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, skip := immutableKeys[key]; skip {
			continue
		}
		if err := next.set(key, p[key]); err != nil {
			return Record{}, err
		}
	}
	next.UpdatedAt = now
	return next, nil
}

func (r *Record) set(key string, val any) error {
	var err error
	switch key {
	case "clientName":
		r.ClientName, err = decodeField[string](key, val)
	case "email":
		r.Email, err = decodeField[string](key, val)
	case "mobile":
		r.Mobile, err = decodeField[string](key, val)
	case "panNumber":
		r.PANNumber, err = decodeField[string](key, val)
	case "aadhaarNumber":
		r.AadhaarNumber, err = decodeField[string](key, val)
	case "panFileUrl":
		r.PANFileURL, err = decodeField[*string](key, val)
	case "aadhaarFileUrl":
		r.AadhaarFileURL, err = decodeField[*string](key, val)
	case "status":
		var s Status
		s, err = decodeField[Status](key, val)
		if err == nil && !s.Valid() {
			err = invalid(key, fmt.Sprintf("status %q is not a known status", s))
		}
		if err == nil {
			r.Status = s
		}
	case "basicValidationPassed":
		r.BasicValidationPassed, err = decodeField[bool](key, val)
	case "ocrValidationPassed":
		r.OCRValidationPassed, err = decodeField[bool](key, val)
	case "panApiValid":
		r.PANAPIValid, err = decodeField[bool](key, val)
	case "allValidationsPassed":
		r.AllValidationsPassed, err = decodeField[bool](key, val)
	case "ocrData":
		r.OCRData, err = decodeField[map[string]any](key, val)
	case "verificationData":
		r.VerificationData, err = decodeField[map[string]any](key, val)
	case "errorDetails":
		r.ErrorDetails, err = decodeField[map[string]any](key, val)
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[key] = cloneValue(val)
	}
	return err
}

// decodeField converts a loosely typed JSON value into the field type T.
func decodeField[T any](key string, val any) (T, error) {
	var out T
	raw, err := json.Marshal(val)
	if err != nil {
		return out, invalid(key, fmt.Sprintf("%s has an invalid value", key))
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, invalid(key, fmt.Sprintf("%s has an invalid value", key))
	}
	return out, nil
}
