package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/converso/routing-service/internal/domain"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// ConversationDTO is the wire shape for a conversation on both thread
// endpoints. assignedTo mirrors assignedMemberId for older clients.
type ConversationDTO struct {
	ID                           string     `json:"id"`
	ContactID                    string     `json:"contactId"`
	AssignedTo                   *string    `json:"assignedTo"`
	AssignedMemberID             *string    `json:"assignedMemberId"`
	TeamID                       *string    `json:"teamId"`
	TakeoverByMemberID           *string    `json:"takeoverByMemberId,omitempty"`
	TakeoverPrevAssignedMemberID *string    `json:"takeoverPrevAssignedMemberId,omitempty"`
	TakeoverAt                   *time.Time `json:"takeoverAt,omitempty"`
	TicketStatus                 string     `json:"ticketStatus"`
	Priority                     string     `json:"priority"`
	UnreadCount                  int        `json:"unreadCount"`
	LastMessageAt                *time.Time `json:"lastMessageAt"`
	NextResponseDueAt            *time.Time `json:"nextResponseDueAt,omitempty"`
	ResolutionDueAt              *time.Time `json:"resolutionDueAt,omitempty"`
	SlaStatus                    *string    `json:"slaStatus,omitempty"`
	LastCustomerMessageAt        *time.Time `json:"lastCustomerMessageAt,omitempty"`
	IsArchived                   bool       `json:"isArchived"`
	Pinned                       bool       `json:"pinned"`
	SnoozedUntil                 *time.Time `json:"snoozedUntil,omitempty"`
	LastReadAt                   *time.Time `json:"lastReadAt,omitempty"`
}

// FromConversation maps the domain entity to its wire shape.
func FromConversation(conv *domain.Conversation) ConversationDTO {
	dto := ConversationDTO{
		ID:                           conv.ID,
		ContactID:                    conv.ContactID,
		AssignedTo:                   conv.AssignedMemberID,
		AssignedMemberID:             conv.AssignedMemberID,
		TeamID:                       conv.TeamID,
		TakeoverByMemberID:           conv.TakeoverByMemberID,
		TakeoverPrevAssignedMemberID: conv.TakeoverPrevAssignedMemberID,
		TakeoverAt:                   conv.TakeoverAt,
		TicketStatus:                 string(conv.TicketStatus),
		Priority:                     string(conv.Priority),
		UnreadCount:                  conv.UnreadCount,
		LastMessageAt:                conv.LastMessageAt,
		NextResponseDueAt:            conv.NextResponseDueAt,
		ResolutionDueAt:              conv.ResolutionDueAt,
		LastCustomerMessageAt:        conv.LastCustomerMessageAt,
		IsArchived:                   conv.IsArchived,
		Pinned:                       conv.Pinned,
		SnoozedUntil:                 conv.SnoozedUntil,
		LastReadAt:                   conv.LastReadAt,
	}
	if conv.SlaStatus != nil {
		status := string(*conv.SlaStatus)
		dto.SlaStatus = &status
	}
	return dto
}

// ConversationEventDTO is the wire shape for one audit entry.
type ConversationEventDTO struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedBy *string        `json:"createdBy,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FromConversationEvent maps an audit entry to its wire shape.
func FromConversationEvent(event domain.ConversationEvent) ConversationEventDTO {
	return ConversationEventDTO{
		ID:        event.ID,
		Type:      string(event.Type),
		Meta:      event.Meta,
		CreatedBy: event.CreatedBy,
		CreatedAt: event.CreatedAt,
	}
}

// EscalationDTO is the wire shape for one recorded breach.
type EscalationDTO struct {
	ID         string    `json:"id"`
	BreachType string    `json:"breachType"`
	DueAt      time.Time `json:"dueAt"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromEscalation maps a breach record to its wire shape.
func FromEscalation(esc domain.Escalation) EscalationDTO {
	return EscalationDTO{
		ID:         esc.ID,
		BreachType: string(esc.BreachType),
		DueAt:      esc.DueAt,
		Reason:     esc.Reason,
		CreatedAt:  esc.CreatedAt,
	}
}

// ThreadPatch is the canonical decoded update body. Set flags record
// that a nullable field appeared in the request, even as null.
type ThreadPatch struct {
	TicketStatus *domain.TicketStatus
	Priority     *domain.Priority

	AssignedMemberID    *string
	AssignedMemberIDSet bool
	TeamID              *string
	TeamIDSet           bool

	UnreadCount *int
	IsArchived  *bool
	Pinned      *bool

	SnoozedUntil    *time.Time
	SnoozedUntilSet bool
	LastReadAt      *time.Time
	LastReadAtSet   bool
}

// canonicalPatchKeys maps every accepted alias (camelCase and
// snake_case) to its canonical field name. Resolution happens once here;
// nothing past this point sees the aliases.
var canonicalPatchKeys = map[string]string{
	"ticketStatus":       "ticket_status",
	"ticket_status":      "ticket_status",
	"priority":           "priority",
	"assignedTo":         "assigned_member_id",
	"assigned_to":        "assigned_member_id",
	"assignedMemberId":   "assigned_member_id",
	"assigned_member_id": "assigned_member_id",
	"teamId":             "team_id",
	"team_id":            "team_id",
	"unreadCount":        "unread_count",
	"unread_count":       "unread_count",
	"isArchived":         "is_archived",
	"is_archived":        "is_archived",
	"pinned":             "pinned",
	"snoozedUntil":       "snoozed_until",
	"snoozed_until":      "snoozed_until",
	"lastReadAt":         "last_read_at",
	"last_read_at":       "last_read_at",
}

// ParseThreadPatch decodes an update body under a strict schema: unknown
// keys are rejected, enum fields must parse, and an empty patch is an
// error.
func ParseThreadPatch(body []byte) (*ThreadPatch, error) {
	raw := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "request body is not a JSON object")
		}
	}

	fields := map[string]json.RawMessage{}
	for key, value := range raw {
		canonical, ok := canonicalPatchKeys[key]
		if !ok {
			return nil, apperrors.NewValidationError(apperrors.CodeUnknownField, fmt.Sprintf("unknown field %q", key))
		}
		fields[canonical] = value
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeNoFields, "no updatable fields in request")
	}

	patch := &ThreadPatch{}
	if value, ok := fields["ticket_status"]; ok {
		str, err := decodeString(value)
		if err != nil || str == nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidTicketStatus, "ticket status must be a string")
		}
		status, valid := domain.ParseTicketStatus(*str)
		if !valid {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidTicketStatus, fmt.Sprintf("invalid ticket status %q", *str))
		}
		patch.TicketStatus = &status
	}
	if value, ok := fields["priority"]; ok {
		str, err := decodeString(value)
		if err != nil || str == nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPriority, "priority must be a string")
		}
		priority, valid := domain.ParsePriority(*str)
		if !valid {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPriority, fmt.Sprintf("invalid priority %q", *str))
		}
		patch.Priority = &priority
	}
	if value, ok := fields["assigned_member_id"]; ok {
		str, err := decodeString(value)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "assigned member id must be a string or null")
		}
		patch.AssignedMemberID = str
		patch.AssignedMemberIDSet = true
	}
	if value, ok := fields["team_id"]; ok {
		str, err := decodeString(value)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "team id must be a string or null")
		}
		patch.TeamID = str
		patch.TeamIDSet = true
	}
	if value, ok := fields["unread_count"]; ok {
		var count int
		if err := json.Unmarshal(value, &count); err != nil || count < 0 {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "unread count must be a non-negative integer")
		}
		patch.UnreadCount = &count
	}
	if value, ok := fields["is_archived"]; ok {
		var flag bool
		if err := json.Unmarshal(value, &flag); err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "is archived must be a boolean")
		}
		patch.IsArchived = &flag
	}
	if value, ok := fields["pinned"]; ok {
		var flag bool
		if err := json.Unmarshal(value, &flag); err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "pinned must be a boolean")
		}
		patch.Pinned = &flag
	}
	if value, ok := fields["snoozed_until"]; ok {
		ts, err := decodeTime(value)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "snoozed until must be an RFC3339 timestamp or null")
		}
		patch.SnoozedUntil = ts
		patch.SnoozedUntilSet = true
	}
	if value, ok := fields["last_read_at"]; ok {
		ts, err := decodeTime(value)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidPayload, "last read at must be an RFC3339 timestamp or null")
		}
		patch.LastReadAt = ts
		patch.LastReadAtSet = true
	}

	return patch, nil
}

func decodeString(raw json.RawMessage) (*string, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, err
	}
	return &str, nil
}

func decodeTime(raw json.RawMessage) (*time.Time, error) {
	str, err := decodeString(raw)
	if err != nil {
		return nil, err
	}
	if str == nil {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, *str)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
