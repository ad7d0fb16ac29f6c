package events

import (
	"time"

	"github.com/converso/routing-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventConversationAssigned   EventType = "conversation_assigned"
	EventTakeoverStarted        EventType = "takeover_started"
	EventTakeoverReleased       EventType = "takeover_released"
	EventSlaBreached            EventType = "sla_breached"
	EventRoutingMappingsUpdated EventType = "routing_mappings_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	WorkspaceID    string    `json:"workspace_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	ActorMemberID  *string   `json:"actor_member_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload"`
}

// ConversationAssignedPayload payload.
type ConversationAssignedPayload struct {
	AssignedMemberID *string `json:"assigned_member_id,omitempty"`
	TeamID           *string `json:"team_id,omitempty"`
}

// TakeoverStartedPayload payload.
type TakeoverStartedPayload struct {
	TakeoverByMemberID   string  `json:"takeover_by_member_id"`
	PrevAssignedMemberID *string `json:"prev_assigned_member_id,omitempty"`
}

// TakeoverReleasedPayload payload.
type TakeoverReleasedPayload struct {
	ReleasedByMemberID string  `json:"released_by_member_id"`
	RestoredMemberID   *string `json:"restored_member_id,omitempty"`
	AutoAssignedID     *string `json:"auto_assigned_id,omitempty"`
}

// SlaBreachedPayload payload.
type SlaBreachedPayload struct {
	BreachType domain.BreachType `json:"breach_type"`
	DueAt      time.Time         `json:"due_at"`
	Priority   domain.Priority   `json:"priority"`
}

// RoutingMappingsUpdatedPayload payload.
type RoutingMappingsUpdatedPayload struct {
	Applied int `json:"applied"`
	Dropped int `json:"dropped"`
}
