package onboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo on the kyc_onboardings table.
type PGRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

const selectColumns = `
SELECT id, workflow_id, client_name, email, mobile, pan_number, aadhaar_number,
       pan_file_url, aadhaar_file_url, status,
       basic_validation_passed, ocr_validation_passed, pan_api_valid, all_validations_passed,
       ocr_data, verification_data, error_details, extra, created_at, updated_at
FROM kyc_onboardings`

func (r *PGRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// Create inserts a new record built from fields.
func (r *PGRepo) Create(ctx context.Context, fields Record) (Record, error) {
	rec := NewRecord(fields, r.now())

	const query = `
INSERT INTO kyc_onboardings (
    id, workflow_id, client_name, email, mobile, pan_number, aadhaar_number,
    pan_file_url, aadhaar_file_url, status,
    basic_validation_passed, ocr_validation_passed, pan_api_valid, all_validations_passed,
    ocr_data, verification_data, error_details, extra, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	docs, err := jsonColumns(rec)
	if err != nil {
		return Record{}, err
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.WorkflowID,
		rec.ClientName,
		rec.Email,
		rec.Mobile,
		rec.PANNumber,
		rec.AadhaarNumber,
		nullString(rec.PANFileURL),
		nullString(rec.AadhaarFileURL),
		string(rec.Status),
		rec.BasicValidationPassed,
		rec.OCRValidationPassed,
		rec.PANAPIValid,
		rec.AllValidationsPassed,
		docs[0],
		docs[1],
		docs[2],
		docs[3],
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert onboarding: %w", err)
	}
	return rec, nil
}

// GetByWorkflowID fetches a record by workflow id.
func (r *PGRepo) GetByWorkflowID(ctx context.Context, workflowID string) (Record, error) {
	return r.getOne(ctx, r.DB, selectColumns+` WHERE workflow_id = $1`, workflowID)
}

// GetByID fetches a record by internal id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	return r.getOne(ctx, r.DB, selectColumns+` WHERE id = $1`, id)
}

// Update locks the row, merges patch and writes every column back in one transaction.
func (r *PGRepo) Update(ctx context.Context, workflowID string, patch Patch) (Record, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := r.getOne(ctx, tx, selectColumns+` WHERE workflow_id = $1 FOR UPDATE`, workflowID)
	if err != nil {
		return Record{}, err
	}
	next, err := current.Apply(patch, r.now())
	if err != nil {
		return Record{}, err
	}
	docs, err := jsonColumns(next)
	if err != nil {
		return Record{}, err
	}

	const query = `
UPDATE kyc_onboardings
SET client_name = $1, email = $2, mobile = $3, pan_number = $4, aadhaar_number = $5,
    pan_file_url = $6, aadhaar_file_url = $7, status = $8,
    basic_validation_passed = $9, ocr_validation_passed = $10, pan_api_valid = $11, all_validations_passed = $12,
    ocr_data = $13, verification_data = $14, error_details = $15, extra = $16, updated_at = $17
WHERE workflow_id = $18`
	_, err = tx.ExecContext(ctx, query,
		next.ClientName,
		next.Email,
		next.Mobile,
		next.PANNumber,
		next.AadhaarNumber,
		nullString(next.PANFileURL),
		nullString(next.AadhaarFileURL),
		string(next.Status),
		next.BasicValidationPassed,
		next.OCRValidationPassed,
		next.PANAPIValid,
		next.AllValidationsPassed,
		docs[0],
		docs[1],
		docs[2],
		docs[3],
		next.UpdatedAt,
		workflowID,
	)
	if err != nil {
		return Record{}, fmt.Errorf("update onboarding: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

// ListAll returns every record, newest first.
func (r *PGRepo) ListAll(ctx context.Context) ([]Record, error) {
	return r.query(ctx, selectColumns+` ORDER BY created_at DESC`)
}

// ListRecent returns at most limit records, newest first.
func (r *PGRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 0 {
		limit = 0
	}
	return r.query(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
}

// ListByStatus returns records with exactly status, newest first.
func (r *PGRepo) ListByStatus(ctx context.Context, status Status) ([]Record, error) {
	return r.query(ctx, selectColumns+` WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) getOne(ctx context.Context, q queryRower, query string, arg string) (Record, error) {
	rec, err := scanRecord(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(s rowScanner) (Record, error) {
	var rec Record
	var status string
	var panURL, aadhaarURL sql.NullString
	var ocrData, verificationData, errorDetails, extra []byte
	if err := s.Scan(
		&rec.ID,
		&rec.WorkflowID,
		&rec.ClientName,
		&rec.Email,
		&rec.Mobile,
		&rec.PANNumber,
		&rec.AadhaarNumber,
		&panURL,
		&aadhaarURL,
		&status,
		&rec.BasicValidationPassed,
		&rec.OCRValidationPassed,
		&rec.PANAPIValid,
		&rec.AllValidationsPassed,
		&ocrData,
		&verificationData,
		&errorDetails,
		&extra,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	if panURL.Valid {
		rec.PANFileURL = &panURL.String
	}
	if aadhaarURL.Valid {
		rec.AadhaarFileURL = &aadhaarURL.String
	}
	for _, col := range []struct {
		raw []byte
		dst *map[string]any
	}{
		{ocrData, &rec.OCRData},
		{verificationData, &rec.VerificationData},
		{errorDetails, &rec.ErrorDetails},
		{extra, &rec.Extra},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return Record{}, fmt.Errorf("decode jsonb column: %w", err)
		}
	}
	return rec, nil
}

// jsonColumns encodes ocr_data, verification_data, error_details and extra; nil maps become NULL.
func jsonColumns(rec Record) ([4]any, error) {
	var out [4]any
	for i, m := range []map[string]any{rec.OCRData, rec.VerificationData, rec.ErrorDetails, rec.Extra} {
		if m == nil {
			continue
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return out, fmt.Errorf("encode jsonb column: %w", err)
		}
		out[i] = string(raw)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
