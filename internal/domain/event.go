package domain

import "time"

// ConversationEventType captures what kind of transition an audit entry
// records.
type ConversationEventType string

const (
	EventTypeTakeover        ConversationEventType = "takeover"
	EventTypeReleaseTakeover ConversationEventType = "release_takeover"
	EventTypeAssignment      ConversationEventType = "assignment"
	EventTypeFieldUpdate     ConversationEventType = "field_update"
	EventTypeSlaBreach       ConversationEventType = "sla_breach"
)

// ConversationEvent is an append-only audit record. Rows are never
// mutated or deleted.
type ConversationEvent struct {
	ID             string
	WorkspaceID    string
	ConversationID string
	Type           ConversationEventType
	Meta           map[string]any
	CreatedBy      *string
	CreatedAt      time.Time
}
