package onboarding

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var recordColumns = []string{
	"id", "workflow_id", "client_name", "email", "mobile", "pan_number", "aadhaar_number",
	"pan_file_url", "aadhaar_file_url", "status",
	"basic_validation_passed", "ocr_validation_passed", "pan_api_valid", "all_validations_passed",
	"ocr_data", "verification_data", "error_details", "extra", "created_at", "updated_at",
}

func recordRow(id, workflowID, status string, createdAt time.Time, extra []byte) []driver.Value {
	return []driver.Value{
		id, workflowID, PendingClientName, PendingEmail, PendingMobile, PendingPANNumber, PendingAadhaarNumber,
		nil, nil, status,
		false, false, false, false,
		nil, nil, nil, extra, createdAt, createdAt,
	}
}

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateInsertsSentinels(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return now }

	mock.ExpectExec("INSERT INTO kyc_onboardings").
		WithArgs(
			sqlmock.AnyArg(), // id
			sqlmock.AnyArg(), // workflow_id
			PendingClientName,
			PendingEmail,
			PendingMobile,
			PendingPANNumber,
			PendingAadhaarNumber,
			nil, // pan_file_url
			nil, // aadhaar_file_url
			"pending",
			false,
			false,
			false,
			false,
			nil, // ocr_data
			nil, // verification_data
			nil, // error_details
			nil, // extra
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := repo.Create(context.Background(), PendingRecord())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Status != StatusPending || rec.WorkflowID == "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByWorkflowIDNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM kyc_onboardings WHERE workflow_id = $1")).
		WithArgs("missing_1").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	if _, err := repo.GetByWorkflowID(context.Background(), "missing_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetDecodesJSONColumns(t *testing.T) {
	repo, mock := newPGRepo(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	row := recordRow("id-1", "id-1_1709283600000", "verified", created, []byte(`{"sheetRow":4}`))
	row[7] = "s3://bucket/pan.png"
	row[14] = []byte(`{"pan":{"name":"ASHA"}}`)

	mock.ExpectQuery(regexp.QuoteMeta("FROM kyc_onboardings WHERE id = $1")).
		WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(row...))

	rec, err := repo.GetByID(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Status != StatusVerified || rec.PANFileURL == nil || *rec.PANFileURL != "s3://bucket/pan.png" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.AadhaarFileURL != nil {
		t.Fatalf("expected nil aadhaarFileUrl")
	}
	pan, _ := rec.OCRData["pan"].(map[string]any)
	if pan["name"] != "ASHA" || rec.Extra["sheetRow"] != float64(4) {
		t.Fatalf("unexpected documents %v %v", rec.OCRData, rec.Extra)
	}
	if rec.VerificationData != nil {
		t.Fatalf("expected nil verificationData")
	}
}

func TestPGRepoUpdateLocksAndWrites(t *testing.T) {
	repo, mock := newPGRepo(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	later := created.Add(time.Minute)
	repo.Now = func() time.Time { return later }
	workflowID := "id-1_1709283600000"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE workflow_id = $1 FOR UPDATE")).
		WithArgs(workflowID).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(recordRow("id-1", workflowID, "processing", created, nil)...))
	mock.ExpectExec("UPDATE kyc_onboardings").
		WithArgs(
			PendingClientName,
			PendingEmail,
			PendingMobile,
			PendingPANNumber,
			PendingAadhaarNumber,
			nil,
			nil,
			"review_required",
			true,
			false,
			false,
			false,
			nil,
			nil,
			nil,
			`{"reviewer":"ops"}`,
			later,
			workflowID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := repo.Update(context.Background(), workflowID, Patch{
		"status":                "review_required",
		"basicValidationPassed": true,
		"reviewer":              "ops",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Status != StatusReviewRequired || !rec.UpdatedAt.Equal(later) || !rec.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateRollsBackInvalidPatch(t *testing.T) {
	repo, mock := newPGRepo(t)
	workflowID := "id-1_1709283600000"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(workflowID).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(recordRow("id-1", workflowID, "processing", time.Now(), nil)...))
	mock.ExpectRollback()

	if _, err := repo.Update(context.Background(), workflowID, Patch{"panApiValid": "yes"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateUnknownWorkflow(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("missing_1").
		WillReturnRows(sqlmock.NewRows(recordColumns))
	mock.ExpectRollback()

	if _, err := repo.Update(context.Background(), "missing_1", Patch{"status": "verified"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListQueries(t *testing.T) {
	repo, mock := newPGRepo(t)
	newer := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(recordRow("b", "b_2", "processing", newer, nil)...).
			AddRow(recordRow("a", "a_1", "pending", older, nil)...))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 ORDER BY created_at DESC")).
		WithArgs("processing").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(recordRow("b", "b_2", "processing", newer, nil)...))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1")).
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	ctx := context.Background()
	recent, err := repo.ListRecent(ctx, 2)
	if err != nil || len(recent) != 2 || recent[0].WorkflowID != "b_2" {
		t.Fatalf("ListRecent: %v %v", err, workflowIDs(recent))
	}
	processing, err := repo.ListByStatus(ctx, StatusProcessing)
	if err != nil || len(processing) != 1 {
		t.Fatalf("ListByStatus: %v %v", err, workflowIDs(processing))
	}
	none, err := repo.ListRecent(ctx, -3)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("ListRecent negative: %v %v", err, none)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
