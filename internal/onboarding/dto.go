package onboarding

import "strconv"

// Response messages shown to clients.
const (
	MsgUploaded       = "Documents uploaded and workflow triggered"
	MsgStatusUpdated  = "Status updated"
	MsgNotFound       = "Onboarding session not found"
	MsgRelayFailed    = "Failed to trigger verification workflow"
	MsgInvalidWebhook = "Webhook body must be a JSON object"
	MsgFileTooLarge   = "Files must be 5MB or smaller"
	MsgInternal       = "Internal server error"
	MsgStatusFailed   = "Failed to get status"
	MsgUpdateFailed   = "Failed to update status"
	MsgListFailed     = "Failed to get onboardings"
	MsgStatsFailed    = "Failed to get dashboard stats"
)

type createResponse struct {
	Success    bool   `json:"success"`
	Onboarding Record `json:"onboarding"`
	WorkflowID string `json:"workflowId"`
}

type uploadResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	WorkflowID    string `json:"workflowId"`
	RelayResponse any    `json:"relayResponse"`
}

type statusResponse struct {
	Success bool       `json:"success"`
	Status  StatusView `json:"status"`
}

type webhookResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Onboarding Record `json:"onboarding"`
}

type listResponse struct {
	Success     bool     `json:"success"`
	Onboardings []Record `json:"onboardings"`
}

type statsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

// parseLimit reads the limit query value; absent or non-numeric means the default.
func parseLimit(raw string) int {
	if raw == "" {
		return DefaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultListLimit
	}
	if n < 0 {
		return 0
	}
	return n
}
