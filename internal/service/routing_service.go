package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/repository"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// MappingInput is one requested (team, category) link.
type MappingInput struct {
	TeamID     string
	CategoryID string
	IsActive   bool
}

// UpsertResult summarizes a batch write.
type UpsertResult struct {
	Applied  int
	Dropped  int
	Mappings []domain.TeamCategoryMappingView
}

// RoutingService maintains which teams service which routing categories.
type RoutingService struct {
	categories repository.CategoryRepository
	teams      repository.TeamRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RoutingDependencies bundles repositories.
type RoutingDependencies struct {
	CategoryRepo repository.CategoryRepository
	TeamRepo     repository.TeamRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewRoutingService creates the service.
func NewRoutingService(deps RoutingDependencies) *RoutingService {
	return &RoutingService{
		categories: deps.CategoryRepo,
		teams:      deps.TeamRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ListMappings returns the workspace's mappings joined with display
// fields.
func (s *RoutingService) ListMappings(ctx context.Context, workspaceID string) ([]domain.TeamCategoryMappingView, error) {
	views, err := s.categories.ListMappings(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return views, nil
}

// UpsertMappings validates every mapping against the workspace's own
// teams and categories, silently dropping foreign ids, and upserts the
// rest on the (team_id, category_id) key. A batch with nothing valid is
// rejected outright.
func (s *RoutingService) UpsertMappings(ctx context.Context, actor Actor, workspaceID string, inputs []MappingInput) (*UpsertResult, error) {
	teams, err := s.teams.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categories, err := s.categories.ListCategories(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	teamIDs := make(map[string]struct{}, len(teams))
	for _, team := range teams {
		teamIDs[team.ID] = struct{}{}
	}
	categoryIDs := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		categoryIDs[cat.ID] = struct{}{}
	}

	valid := make([]MappingInput, 0, len(inputs))
	for _, input := range inputs {
		if _, ok := teamIDs[input.TeamID]; !ok {
			s.logger.Warn("dropping mapping with foreign team id",
				zap.String("workspace_id", workspaceID),
				zap.String("team_id", input.TeamID))
			continue
		}
		if _, ok := categoryIDs[input.CategoryID]; !ok {
			s.logger.Warn("dropping mapping with foreign category id",
				zap.String("workspace_id", workspaceID),
				zap.String("category_id", input.CategoryID))
			continue
		}
		valid = append(valid, input)
	}
	if len(valid) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidMappings, "no valid mappings in request")
	}

	for _, input := range valid {
		mapping := &domain.TeamCategoryMapping{
			TeamID:     input.TeamID,
			CategoryID: input.CategoryID,
			IsActive:   input.IsActive,
		}
		if err := s.categories.UpsertMapping(ctx, mapping); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	dropped := len(inputs) - len(valid)
	s.publishUpdated(ctx, actor, workspaceID, len(valid), dropped)

	views, err := s.categories.ListMappings(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &UpsertResult{Applied: len(valid), Dropped: dropped, Mappings: views}, nil
}

func (s *RoutingService) publishUpdated(ctx context.Context, actor Actor, workspaceID string, applied, dropped int) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          events.EventRoutingMappingsUpdated,
		WorkspaceID:   workspaceID,
		ActorMemberID: &actor.MemberID,
		Timestamp:     time.Now(),
		Payload: events.RoutingMappingsUpdatedPayload{
			Applied: applied,
			Dropped: dropped,
		},
	})
}
