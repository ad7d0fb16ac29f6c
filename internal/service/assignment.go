package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/repository"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// AssignmentResolver picks and persists an owner for a conversation
// entering a team's pool. The takeover coordinator treats it as a black
// box; the underlying store is expected to serialize concurrent picks.
type AssignmentResolver interface {
	Assign(ctx context.Context, workspaceID, teamID, conversationID string) (string, error)
}

// CursorStore hands out sequence numbers for round-robin rotation.
type CursorStore interface {
	Next(ctx context.Context, key string) (int64, error)
}

// RoundRobinResolver distributes conversations across a team's active
// members in creation order, rotating on a shared cursor.
type RoundRobinResolver struct {
	conversations repository.ConversationRepository
	members       repository.MemberRepository
	cursor        CursorStore
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// RoundRobinDependencies bundles collaborators.
type RoundRobinDependencies struct {
	ConversationRepo repository.ConversationRepository
	MemberRepo       repository.MemberRepository
	Cursor           CursorStore
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewRoundRobinResolver creates the resolver.
func NewRoundRobinResolver(deps RoundRobinDependencies) *RoundRobinResolver {
	return &RoundRobinResolver{
		conversations: deps.ConversationRepo,
		members:       deps.MemberRepo,
		cursor:        deps.Cursor,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// Assign picks the next active member of the team and writes the
// assignment. Returns the chosen member id.
func (r *RoundRobinResolver) Assign(ctx context.Context, workspaceID, teamID, conversationID string) (string, error) {
	pool, err := r.members.ListActiveByTeam(ctx, workspaceID, teamID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if len(pool) == 0 {
		return "", apperrors.NewConflict("no_eligible_members", fmt.Sprintf("team %s has no active members", teamID))
	}

	seq, err := r.cursor.Next(ctx, fmt.Sprintf("rr:%s:%s", workspaceID, teamID))
	if err != nil {
		return "", apperrors.MapError(err)
	}
	member := pool[int((seq-1)%int64(len(pool)))]

	conv, err := r.conversations.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	conv.TeamID = &teamID
	conv.AssignedMemberID = &member.ID
	if err := r.conversations.Update(ctx, conv); err != nil {
		return "", apperrors.MapError(err)
	}

	r.publishAssigned(ctx, conv)
	return member.ID, nil
}

func (r *RoundRobinResolver) publishAssigned(ctx context.Context, conv *domain.Conversation) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventConversationAssigned,
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		Timestamp:      time.Now(),
		Payload: events.ConversationAssignedPayload{
			AssignedMemberID: conv.AssignedMemberID,
			TeamID:           conv.TeamID,
		},
	})
}
