package sla

import (
	"time"

	"github.com/converso/routing-service/internal/domain"
)

// Input feeds one calculation. Zero values degrade to defaults: empty
// priority means low, empty status means open, nil message time means no
// clock is running.
type Input struct {
	Priority              domain.Priority
	TicketStatus          domain.TicketStatus
	LastCustomerMessageAt *time.Time
	Now                   time.Time
}

// Result carries the derived deadlines and classification.
type Result struct {
	NextResponseDueAt *time.Time
	ResolutionDueAt   *time.Time
	SlaStatus         domain.SlaStatus
}

// Compute derives SLA deadlines and breach classification. Pure; no I/O.
//
// Solved and spam conversations short-circuit to a cleared clock, as does
// a conversation with no customer message yet. The status classification
// reads the response deadline only; resolution feeds escalation recording
// downstream but never the status field.
func Compute(in Input) Result {
	status := in.TicketStatus
	if status == "" {
		status = domain.TicketStatusOpen
	}
	if status.Terminal() {
		return Result{SlaStatus: domain.SlaStatusOK}
	}

	last := in.LastCustomerMessageAt
	if last == nil || last.IsZero() {
		return Result{SlaStatus: domain.SlaStatusOK}
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityLow
	}
	budget := BudgetFor(priority)

	nextResponse := last.Add(budget.Response)
	resolution := last.Add(budget.Resolution)

	slaStatus := domain.SlaStatusOK
	switch {
	case !in.Now.Before(nextResponse):
		// A deadline landing exactly on now is already missed.
		slaStatus = domain.SlaStatusBreached
	case nextResponse.Sub(in.Now) <= DueSoonWindow:
		slaStatus = domain.SlaStatusDueSoon
	}

	return Result{
		NextResponseDueAt: &nextResponse,
		ResolutionDueAt:   &resolution,
		SlaStatus:         slaStatus,
	}
}
