package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/persistence"
	"github.com/converso/routing-service/internal/repository"
	"github.com/converso/routing-service/internal/sla"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// RecomputeOverrides lets the update endpoint feed not-yet-loaded values
// into a recomputation. A nil field means "use the persisted value".
type RecomputeOverrides struct {
	Priority              *domain.Priority
	TicketStatus          *domain.TicketStatus
	LastCustomerMessageAt *time.Time
}

// SlaService derives due-dates from priority and ticket lifecycle and
// records breach escalations.
type SlaService struct {
	conversations repository.ConversationRepository
	escalations   repository.EscalationRepository
	cache         *persistence.ConversationCache
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	clock         func() time.Time
}

// SlaDependencies bundles collaborators.
type SlaDependencies struct {
	ConversationRepo repository.ConversationRepository
	EscalationRepo   repository.EscalationRepository
	Cache            *persistence.ConversationCache
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Clock            func() time.Time
}

// NewSlaService creates the service.
func NewSlaService(deps SlaDependencies) *SlaService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SlaService{
		conversations: deps.ConversationRepo,
		escalations:   deps.EscalationRepo,
		cache:         deps.Cache,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		clock:         clock,
	}
}

// Recompute loads the conversation, runs the calculator over the
// effective (override-or-persisted) inputs, writes the derived fields
// back in a single scoped update and records any newly crossed deadline.
// Repeated calls with unchanged state are idempotent.
func (s *SlaService) Recompute(ctx context.Context, workspaceID, conversationID string, overrides *RecomputeOverrides) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConversationNotFound(conversationID)
		}
		return nil, apperrors.MapError(err)
	}

	priority := conv.Priority
	status := conv.TicketStatus
	lastMsg := conv.LastCustomerMessageAt
	if overrides != nil {
		if overrides.Priority != nil {
			priority = *overrides.Priority
		}
		if overrides.TicketStatus != nil {
			status = *overrides.TicketStatus
		}
		if overrides.LastCustomerMessageAt != nil {
			lastMsg = overrides.LastCustomerMessageAt
			conv.LastCustomerMessageAt = overrides.LastCustomerMessageAt
		}
	}

	now := s.clock()
	result := sla.Compute(sla.Input{
		Priority:              priority,
		TicketStatus:          status,
		LastCustomerMessageAt: lastMsg,
		Now:                   now,
	})

	conv.NextResponseDueAt = result.NextResponseDueAt
	conv.ResolutionDueAt = result.ResolutionDueAt
	slaStatus := result.SlaStatus
	conv.SlaStatus = &slaStatus

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.cache.Invalidate(ctx, workspaceID, conversationID); err != nil {
		s.logger.Warn("invalidate conversation cache", zap.String("conversation_id", conversationID), zap.Error(err))
	}

	if status == domain.TicketStatusOpen || status == domain.TicketStatusPending {
		s.recordBreaches(ctx, conv, priority, now)
	}

	return conv, nil
}

// recordBreaches upserts one escalation row per deadline that has been
// reached, matching the calculator's breach boundary. Conflicts on the
// (conversation, breach type, due) key are silently ignored.
func (s *SlaService) recordBreaches(ctx context.Context, conv *domain.Conversation, priority domain.Priority, now time.Time) {
	type deadline struct {
		kind  domain.BreachType
		dueAt *time.Time
	}
	for _, d := range []deadline{
		{domain.BreachNextResponse, conv.NextResponseDueAt},
		{domain.BreachResolution, conv.ResolutionDueAt},
	} {
		if d.dueAt == nil || d.dueAt.After(now) {
			continue
		}
		esc := &domain.Escalation{
			WorkspaceID:    conv.WorkspaceID,
			ConversationID: conv.ID,
			BreachType:     d.kind,
			DueAt:          *d.dueAt,
			Reason:         fmt.Sprintf("%s deadline missed for %s priority", d.kind, priority),
		}
		inserted, err := s.escalations.Record(ctx, esc)
		if err != nil {
			s.logger.Warn("record escalation",
				zap.String("conversation_id", conv.ID),
				zap.String("breach_type", string(d.kind)),
				zap.Error(err))
			continue
		}
		if inserted {
			s.publishBreach(ctx, conv, d.kind, *d.dueAt, priority)
		}
	}
}

func (s *SlaService) publishBreach(ctx context.Context, conv *domain.Conversation, kind domain.BreachType, dueAt time.Time, priority domain.Priority) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventSlaBreached,
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		Timestamp:      s.clock(),
		Payload: events.SlaBreachedPayload{
			BreachType: kind,
			DueAt:      dueAt,
			Priority:   priority,
		},
	})
}
