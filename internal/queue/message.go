package queue

import "encoding/json"

// MessageVersion is the schema version stamped on every event.
const MessageVersion = 1

// Message is an onboarding status-change event for downstream consumers.
type Message struct {
	WorkflowID     string `json:"workflowId"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	Source         string `json:"source"`
	RequestID      string `json:"requestId,omitempty"`
	EnqueuedAt     string `json:"enqueuedAt"`
	Version        int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
