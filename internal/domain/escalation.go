package domain

import "time"

// BreachType identifies which SLA deadline was crossed.
type BreachType string

const (
	BreachNextResponse BreachType = "next_response"
	BreachResolution   BreachType = "resolution"
)

// Escalation is a persisted breach record, write-once per
// (conversation_id, breach_type, due_at).
type Escalation struct {
	ID             string
	WorkspaceID    string
	ConversationID string
	BreachType     BreachType
	DueAt          time.Time
	Reason         string
	CreatedAt      time.Time
}
