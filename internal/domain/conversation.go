package domain

import "time"

// TicketStatus enumerates lifecycle states for conversations.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusSolved  TicketStatus = "solved"
	TicketStatusSpam    TicketStatus = "spam"
)

// ParseTicketStatus validates a wire value.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusPending, TicketStatusSolved, TicketStatusSpam:
		return TicketStatus(raw), true
	}
	return "", false
}

// Terminal reports whether the status ends the SLA clock.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusSolved || s == TicketStatusSpam
}

// Priority enumerates SLA urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMed    Priority = "med"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a wire value.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(raw) {
	case PriorityLow, PriorityMed, PriorityHigh, PriorityUrgent:
		return Priority(raw), true
	}
	return "", false
}

// SlaStatus classifies a conversation against its response deadline.
type SlaStatus string

const (
	SlaStatusOK       SlaStatus = "ok"
	SlaStatusDueSoon  SlaStatus = "due_soon"
	SlaStatusBreached SlaStatus = "breached"
)

// Conversation is the aggregate for routed customer threads. Every read
// and write is scoped by (WorkspaceID, ID).
type Conversation struct {
	ID          string
	WorkspaceID string
	ContactID   string

	TeamID           *string
	AssignedMemberID *string

	TakeoverByMemberID           *string
	TakeoverPrevAssignedMemberID *string
	TakeoverAt                   *time.Time

	TicketStatus TicketStatus
	Priority     Priority

	LastCustomerMessageAt *time.Time
	NextResponseDueAt     *time.Time
	ResolutionDueAt       *time.Time
	SlaStatus             *SlaStatus

	UnreadCount   int
	IsArchived    bool
	Pinned        bool
	SnoozedUntil  *time.Time
	LastReadAt    *time.Time
	LastMessageAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TakenOver reports whether a supervisor currently holds the conversation.
func (c *Conversation) TakenOver() bool {
	return c.TakeoverByMemberID != nil
}
