package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/config"
	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/persistence"
	"github.com/converso/routing-service/internal/repository"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// Actor identifies the workspace member performing an operation.
type Actor struct {
	MemberID string
	Role     domain.MemberRole
}

// TakeoverService coordinates supervisor takeover and release of
// conversations. Per conversation the states are Unassigned, Assigned
// and TakenOver; takeover_prev_assigned_member_id remembers the owner to
// restore on release.
type TakeoverService struct {
	conversations repository.ConversationRepository
	members       repository.MemberRepository
	auditRepo     repository.EventRepository
	resolver      AssignmentResolver
	cache         *persistence.ConversationCache
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           config.TakeoverConfig
	clock         func() time.Time
}

// TakeoverDependencies bundles collaborators.
type TakeoverDependencies struct {
	ConversationRepo repository.ConversationRepository
	MemberRepo       repository.MemberRepository
	AuditRepo        repository.EventRepository
	Resolver         AssignmentResolver
	Cache            *persistence.ConversationCache
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Config           config.TakeoverConfig
	Clock            func() time.Time
}

// NewTakeoverService creates the service.
func NewTakeoverService(deps TakeoverDependencies) *TakeoverService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TakeoverService{
		conversations: deps.ConversationRepo,
		members:       deps.MemberRepo,
		auditRepo:     deps.AuditRepo,
		resolver:      deps.Resolver,
		cache:         deps.Cache,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		cfg:           deps.Config,
		clock:         clock,
	}
}

// Takeover puts the acting supervisor in charge of the conversation,
// remembering the displaced assignee for later restoration.
func (s *TakeoverService) Takeover(ctx context.Context, actor Actor, workspaceID, conversationID string) (*domain.Conversation, error) {
	if err := s.gate(actor); err != nil {
		return nil, err
	}

	conv, err := s.loadConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.TakenOver() {
		return nil, apperrors.NewConflict(apperrors.CodeAlreadyTakenOver, "conversation is already taken over")
	}

	prev := conv.AssignedMemberID
	now := s.clock()
	conv.TakeoverByMemberID = &actor.MemberID
	conv.TakeoverPrevAssignedMemberID = prev
	conv.TakeoverAt = &now
	conv.AssignedMemberID = &actor.MemberID

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, workspaceID, conversationID)

	s.appendAudit(ctx, conv, actor, domain.EventTypeTakeover, map[string]any{
		"takeover_by_member_id":   actor.MemberID,
		"prev_assigned_member_id": deref(prev),
	})
	s.publish(ctx, conv, actor, events.EventTakeoverStarted, events.TakeoverStartedPayload{
		TakeoverByMemberID:   actor.MemberID,
		PrevAssignedMemberID: prev,
	})

	return s.conversations.GetByID(ctx, workspaceID, conversationID)
}

// Release ends an active takeover. The remembered assignee is restored
// when still active and on the conversation's team; otherwise the
// conversation falls through to round-robin auto-assignment (team set)
// or stays unassigned. Sub-failures past the invariant checks degrade
// gracefully rather than failing the release.
func (s *TakeoverService) Release(ctx context.Context, actor Actor, workspaceID, conversationID string) (*domain.Conversation, error) {
	if err := s.gate(actor); err != nil {
		return nil, err
	}

	conv, err := s.loadConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.TakenOver() {
		return nil, apperrors.NewValidationError(apperrors.CodeNotTakenOver, "conversation is not taken over")
	}

	takeoverBy := conv.TakeoverByMemberID
	prev := conv.TakeoverPrevAssignedMemberID
	restored := s.restoreTarget(ctx, conv, prev)

	conv.TakeoverByMemberID = nil
	conv.TakeoverPrevAssignedMemberID = nil
	conv.TakeoverAt = nil
	conv.AssignedMemberID = restored

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, workspaceID, conversationID)

	var autoAssigned *string
	if restored == nil && conv.TeamID != nil {
		memberID, err := s.resolver.Assign(ctx, workspaceID, *conv.TeamID, conversationID)
		if err != nil {
			s.logger.Warn("round-robin assignment after release failed",
				zap.String("conversation_id", conversationID),
				zap.String("team_id", *conv.TeamID),
				zap.Error(err))
		} else {
			autoAssigned = &memberID
		}
	}

	s.appendAudit(ctx, conv, actor, domain.EventTypeReleaseTakeover, map[string]any{
		"takeover_by_member_id":   deref(takeoverBy),
		"prev_assigned_member_id": deref(prev),
		"restored_member_id":      deref(restored),
		"auto_assigned_member_id": deref(autoAssigned),
	})
	s.publish(ctx, conv, actor, events.EventTakeoverReleased, events.TakeoverReleasedPayload{
		ReleasedByMemberID: actor.MemberID,
		RestoredMemberID:   restored,
		AutoAssignedID:     autoAssigned,
	})

	return s.conversations.GetByID(ctx, workspaceID, conversationID)
}

func (s *TakeoverService) gate(actor Actor) error {
	if !s.cfg.SupervisorTakeoverEnabled {
		return apperrors.NewFeatureDisabled("supervisor takeover")
	}
	if !actor.Role.CanTakeover() {
		return apperrors.NewForbidden("supervisor or admin role required")
	}
	return nil
}

func (s *TakeoverService) loadConversation(ctx context.Context, workspaceID, conversationID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConversationNotFound(conversationID)
		}
		return nil, apperrors.MapError(err)
	}
	return conv, nil
}

// restoreTarget resolves the member to hand the conversation back to.
// Returns nil when the remembered assignee is gone, inactive or on a
// different team than the conversation. Lookup errors are logged and
// treated as "skip restoration".
func (s *TakeoverService) restoreTarget(ctx context.Context, conv *domain.Conversation, prev *string) *string {
	if prev == nil {
		return nil
	}
	member, err := s.members.GetByID(ctx, conv.WorkspaceID, *prev)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("restore target lookup failed", zap.String("member_id", *prev), zap.Error(err))
		}
		return nil
	}
	if !member.IsActive {
		return nil
	}
	if conv.TeamID != nil && (member.TeamID == nil || *member.TeamID != *conv.TeamID) {
		return nil
	}
	return &member.ID
}

// appendAudit writes the transition record. Best-effort: an audit
// failure never rolls back the parent operation.
func (s *TakeoverService) appendAudit(ctx context.Context, conv *domain.Conversation, actor Actor, eventType domain.ConversationEventType, meta map[string]any) {
	entry := &domain.ConversationEvent{
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		Type:           eventType,
		Meta:           meta,
		CreatedBy:      &actor.MemberID,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("append audit event",
			zap.String("conversation_id", conv.ID),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

func (s *TakeoverService) publish(ctx context.Context, conv *domain.Conversation, actor Actor, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		ActorMemberID:  &actor.MemberID,
		Timestamp:      s.clock(),
		Payload:        payload,
	})
}

func (s *TakeoverService) invalidate(ctx context.Context, workspaceID, conversationID string) {
	if err := s.cache.Invalidate(ctx, workspaceID, conversationID); err != nil {
		s.logger.Warn("invalidate conversation cache", zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

func deref(val *string) any {
	if val == nil {
		return nil
	}
	return *val
}
