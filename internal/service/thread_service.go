package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/persistence"
	"github.com/converso/routing-service/internal/repository"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// ThreadUpdateInput is the canonical, alias-resolved patch for a
// conversation. Nil means "leave unchanged"; the Set flags let nullable
// fields be cleared explicitly.
type ThreadUpdateInput struct {
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

// TouchesSla reports whether the patch requires SLA recomputation.
func (in ThreadUpdateInput) TouchesSla() bool {
	return in.TicketStatus != nil || in.Priority != nil
}

// ThreadService serves conversation reads and field patches.
type ThreadService struct {
	conversations repository.ConversationRepository
	auditRepo     repository.EventRepository
	escalations   repository.EscalationRepository
	slaService    *SlaService
	cache         *persistence.ConversationCache
	logger        *zap.Logger
}

// ThreadDependencies bundles collaborators.
type ThreadDependencies struct {
	ConversationRepo repository.ConversationRepository
	AuditRepo        repository.EventRepository
	EscalationRepo   repository.EscalationRepository
	SlaService       *SlaService
	Cache            *persistence.ConversationCache
	Logger           *zap.Logger
}

// NewThreadService creates the service.
func NewThreadService(deps ThreadDependencies) *ThreadService {
	return &ThreadService{
		conversations: deps.ConversationRepo,
		auditRepo:     deps.AuditRepo,
		escalations:   deps.EscalationRepo,
		slaService:    deps.SlaService,
		cache:         deps.Cache,
		logger:        deps.Logger,
	}
}

// GetThread returns the conversation, read through the cache.
func (s *ThreadService) GetThread(ctx context.Context, workspaceID, conversationID string) (*domain.Conversation, error) {
	if cached, err := s.cache.Get(ctx, workspaceID, conversationID); err != nil {
		s.logger.Warn("conversation cache read", zap.String("conversation_id", conversationID), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	conv, err := s.conversations.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConversationNotFound(conversationID)
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.cache.Set(ctx, conv); err != nil {
		s.logger.Warn("conversation cache write", zap.String("conversation_id", conversationID), zap.Error(err))
	}
	return conv, nil
}

// ThreadHistory bundles a conversation's audit trail and recorded
// breaches.
type ThreadHistory struct {
	Events      []domain.ConversationEvent
	Escalations []domain.Escalation
}

// GetThreadHistory returns the conversation's audit events and
// escalations.
func (s *ThreadService) GetThreadHistory(ctx context.Context, workspaceID, conversationID string) (*ThreadHistory, error) {
	if _, err := s.conversations.GetByID(ctx, workspaceID, conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConversationNotFound(conversationID)
		}
		return nil, apperrors.MapError(err)
	}

	eventList, err := s.auditRepo.ListByConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	escalations, err := s.escalations.ListByConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ThreadHistory{Events: eventList, Escalations: escalations}, nil
}

// UpdateThread applies the patch and, when ticket_status or priority
// changed, synchronously recomputes SLA state with the new values as
// overrides. Fields unrelated to the SLA clock never trigger the
// recomputation.
func (s *ThreadService) UpdateThread(ctx context.Context, actor Actor, workspaceID, conversationID string, input ThreadUpdateInput) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConversationNotFound(conversationID)
		}
		return nil, apperrors.MapError(err)
	}

	changed := applyPatch(conv, input)

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.cache.Invalidate(ctx, workspaceID, conversationID); err != nil {
		s.logger.Warn("invalidate conversation cache", zap.String("conversation_id", conversationID), zap.Error(err))
	}

	s.appendFieldAudit(ctx, conv, actor, changed)

	if input.TouchesSla() {
		return s.slaService.Recompute(ctx, workspaceID, conversationID, &RecomputeOverrides{
			Priority:     input.Priority,
			TicketStatus: input.TicketStatus,
		})
	}
	return conv, nil
}

func applyPatch(conv *domain.Conversation, input ThreadUpdateInput) []string {
	var changed []string
	if input.TicketStatus != nil {
		conv.TicketStatus = *input.TicketStatus
		changed = append(changed, "ticket_status")
	}
	if input.Priority != nil {
		conv.Priority = *input.Priority
		changed = append(changed, "priority")
	}
	if input.AssignedMemberIDSet {
		conv.AssignedMemberID = input.AssignedMemberID
		changed = append(changed, "assigned_member_id")
	}
	if input.TeamIDSet {
		conv.TeamID = input.TeamID
		changed = append(changed, "team_id")
	}
	if input.UnreadCount != nil {
		conv.UnreadCount = *input.UnreadCount
		changed = append(changed, "unread_count")
	}
	if input.IsArchived != nil {
		conv.IsArchived = *input.IsArchived
		changed = append(changed, "is_archived")
	}
	if input.Pinned != nil {
		conv.Pinned = *input.Pinned
		changed = append(changed, "pinned")
	}
	if input.SnoozedUntilSet {
		conv.SnoozedUntil = input.SnoozedUntil
		changed = append(changed, "snoozed_until")
	}
	if input.LastReadAtSet {
		conv.LastReadAt = input.LastReadAt
		changed = append(changed, "last_read_at")
	}
	return changed
}

// appendFieldAudit records which fields a patch touched. Best-effort.
func (s *ThreadService) appendFieldAudit(ctx context.Context, conv *domain.Conversation, actor Actor, changed []string) {
	if len(changed) == 0 {
		return
	}
	entry := &domain.ConversationEvent{
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		Type:           domain.EventTypeFieldUpdate,
		Meta:           map[string]any{"fields": changed},
		CreatedBy:      &actor.MemberID,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("append audit event", zap.String("conversation_id", conv.ID), zap.Error(err))
	}
}
