package onboarding

// StepState is the display state of one pipeline step.
type StepState string

const (
	StepPending    StepState = "pending"
	StepProcessing StepState = "processing"
	StepCompleted  StepState = "completed"
)

// StepStatuses holds the per-step display states shown by the wizard.
type StepStatuses struct {
	PANUpload            StepState `json:"panUpload"`
	AadhaarUpload        StepState `json:"aadhaarUpload"`
	PANOCR               StepState `json:"panOcr"`
	AadhaarOCR           StepState `json:"aadhaarOcr"`
	PANVerification      StepState `json:"panVerification"`
	SheetsStorage        StepState `json:"sheetsStorage"`
	TelegramNotification StepState `json:"telegramNotification"`
}

// StatusView is the read model returned by the status endpoint.
type StatusView struct {
	WorkflowID            string         `json:"workflowId"`
	CurrentStep           int            `json:"currentStep"`
	Status                Status         `json:"status"`
	BasicValidationPassed bool           `json:"basicValidationPassed"`
	OCRValidationPassed   bool           `json:"ocrValidationPassed"`
	PANAPIValid           bool           `json:"panApiValid"`
	AllValidationsPassed  bool           `json:"allValidationsPassed"`
	OCRData               map[string]any `json:"ocrData"`
	VerificationData      map[string]any `json:"verificationData"`
	ErrorDetails          map[string]any `json:"errorDetails"`
	StepStatuses          StepStatuses   `json:"stepStatuses"`
}

// Project derives the status view from a record. It is pure and never stored.
func Project(rec Record) StatusView {
	return StatusView{
		WorkflowID:            rec.WorkflowID,
		CurrentStep:           currentStep(rec),
		Status:                rec.Status,
		BasicValidationPassed: rec.BasicValidationPassed,
		OCRValidationPassed:   rec.OCRValidationPassed,
		PANAPIValid:           rec.PANAPIValid,
		AllValidationsPassed:  rec.AllValidationsPassed,
		OCRData:               rec.OCRData,
		VerificationData:      rec.VerificationData,
		ErrorDetails:          rec.ErrorDetails,
		StepStatuses:          stepStatuses(rec),
	}
}

// currentStep applies its rules as successive overwrites; later rules win.
func currentStep(rec Record) int {
	step := 1
	if rec.BasicValidationPassed {
		step = 2
	}
	if rec.Status == StatusProcessing {
		step = 3
	}
	if rec.Status.Terminal() {
		step = 4
	}
	return step
}

func stepStatuses(rec Record) StepStatuses {
	processing := rec.Status == StatusProcessing
	ocr := signal(rec.OCRData != nil, processing)
	downstream := signal(rec.AllValidationsPassed, processing)
	return StepStatuses{
		PANUpload:            signal(rec.PANFileURL != nil, false),
		AadhaarUpload:        signal(rec.AadhaarFileURL != nil, false),
		PANOCR:               ocr,
		AadhaarOCR:           ocr,
		PANVerification:      signal(rec.PANAPIValid, processing),
		SheetsStorage:        downstream,
		TelegramNotification: downstream,
	}
}

func signal(done, processing bool) StepState {
	switch {
	case done:
		return StepCompleted
	case processing:
		return StepProcessing
	default:
		return StepPending
	}
}
