package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/repository"
)

func convKey(workspaceID, id string) string {
	return workspaceID + "|" + id
}

// mockConversationRepository implements repository.ConversationRepository
// for testing. Reads hand out copies so in-flight mutations only land on
// Update, mirroring the store.
type mockConversationRepository struct {
	conversations map[string]*domain.Conversation
	getErr        error
	updateErr     error
	updates       int
}

func newMockConversationRepository() *mockConversationRepository {
	return &mockConversationRepository{conversations: make(map[string]*domain.Conversation)}
}

func (m *mockConversationRepository) put(conv *domain.Conversation) {
	clone := *conv
	m.conversations[convKey(conv.WorkspaceID, conv.ID)] = &clone
}

func (m *mockConversationRepository) stored(workspaceID, id string) *domain.Conversation {
	return m.conversations[convKey(workspaceID, id)]
}

func (m *mockConversationRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Conversation, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	conv, ok := m.conversations[convKey(workspaceID, id)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *conv
	return &clone, nil
}

func (m *mockConversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.conversations[convKey(conv.WorkspaceID, conv.ID)]; !ok {
		return pgx.ErrNoRows
	}
	m.updates++
	m.put(conv)
	return nil
}

// mockMemberRepository implements repository.MemberRepository.
type mockMemberRepository struct {
	members map[string]*domain.TeamMember
	getErr  error
	listErr error
}

func newMockMemberRepository() *mockMemberRepository {
	return &mockMemberRepository{members: make(map[string]*domain.TeamMember)}
}

func (m *mockMemberRepository) put(member *domain.TeamMember) {
	m.members[convKey(member.WorkspaceID, member.ID)] = member
}

func (m *mockMemberRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.TeamMember, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	member, ok := m.members[convKey(workspaceID, id)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return member, nil
}

func (m *mockMemberRepository) ListActiveByTeam(ctx context.Context, workspaceID, teamID string) ([]domain.TeamMember, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []domain.TeamMember
	for _, member := range m.members {
		if member.WorkspaceID != workspaceID || !member.IsActive {
			continue
		}
		if member.TeamID == nil || *member.TeamID != teamID {
			continue
		}
		result = append(result, *member)
	}
	// Creation order matters for round-robin; sort by CreatedAt.
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].CreatedAt.Before(result[i].CreatedAt) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

// mockEscalationRepository implements repository.EscalationRepository
// with the same conflict-ignore semantics as the unique key.
type mockEscalationRepository struct {
	rows      map[string]*domain.Escalation
	recordErr error
}

func newMockEscalationRepository() *mockEscalationRepository {
	return &mockEscalationRepository{rows: make(map[string]*domain.Escalation)}
}

func escalationKey(esc *domain.Escalation) string {
	return esc.ConversationID + "|" + string(esc.BreachType) + "|" + esc.DueAt.UTC().String()
}

func (m *mockEscalationRepository) Record(ctx context.Context, esc *domain.Escalation) (bool, error) {
	if m.recordErr != nil {
		return false, m.recordErr
	}
	key := escalationKey(esc)
	if _, exists := m.rows[key]; exists {
		return false, nil
	}
	m.rows[key] = esc
	return true, nil
}

func (m *mockEscalationRepository) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]domain.Escalation, error) {
	var result []domain.Escalation
	for _, esc := range m.rows {
		if esc.WorkspaceID == workspaceID && esc.ConversationID == conversationID {
			result = append(result, *esc)
		}
	}
	return result, nil
}

// mockEventRepository implements repository.EventRepository.
type mockEventRepository struct {
	appended  []domain.ConversationEvent
	appendErr error
}

func (m *mockEventRepository) Append(ctx context.Context, event *domain.ConversationEvent) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, *event)
	return nil
}

func (m *mockEventRepository) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]domain.ConversationEvent, error) {
	var result []domain.ConversationEvent
	for _, event := range m.appended {
		if event.WorkspaceID == workspaceID && event.ConversationID == conversationID {
			result = append(result, event)
		}
	}
	return result, nil
}

// mockTeamRepository implements repository.TeamRepository.
type mockTeamRepository struct {
	teams []domain.Team
}

func (m *mockTeamRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Team, error) {
	for i := range m.teams {
		if m.teams[i].WorkspaceID == workspaceID && m.teams[i].ID == id {
			return &m.teams[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTeamRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Team, error) {
	var result []domain.Team
	for _, team := range m.teams {
		if team.WorkspaceID == workspaceID {
			result = append(result, team)
		}
	}
	return result, nil
}

// mockCategoryRepository implements repository.CategoryRepository.
type mockCategoryRepository struct {
	categories []domain.RoutingCategory
	teams      *mockTeamRepository
	mappings   map[string]*domain.TeamCategoryMapping
}

func newMockCategoryRepository(teams *mockTeamRepository) *mockCategoryRepository {
	return &mockCategoryRepository{
		teams:    teams,
		mappings: make(map[string]*domain.TeamCategoryMapping),
	}
}

func (m *mockCategoryRepository) ListCategories(ctx context.Context, workspaceID string) ([]domain.RoutingCategory, error) {
	var result []domain.RoutingCategory
	for _, cat := range m.categories {
		if cat.WorkspaceID == workspaceID {
			result = append(result, cat)
		}
	}
	return result, nil
}

func (m *mockCategoryRepository) ListMappings(ctx context.Context, workspaceID string) ([]domain.TeamCategoryMappingView, error) {
	var result []domain.TeamCategoryMappingView
	for _, mapping := range m.mappings {
		team, err := m.teams.GetByID(ctx, workspaceID, mapping.TeamID)
		if err != nil {
			continue
		}
		var key, label string
		for _, cat := range m.categories {
			if cat.ID == mapping.CategoryID {
				key, label = cat.Key, cat.Label
			}
		}
		result = append(result, domain.TeamCategoryMappingView{
			TeamCategoryMapping: *mapping,
			TeamName:            team.Name,
			CategoryKey:         key,
			CategoryLabel:       label,
		})
	}
	return result, nil
}

func (m *mockCategoryRepository) UpsertMapping(ctx context.Context, mapping *domain.TeamCategoryMapping) error {
	key := mapping.TeamID + "|" + mapping.CategoryID
	if existing, ok := m.mappings[key]; ok {
		existing.IsActive = mapping.IsActive
		*mapping = *existing
		return nil
	}
	clone := *mapping
	clone.ID = "map-" + key
	m.mappings[key] = &clone
	*mapping = clone
	return nil
}

// mockResolver implements AssignmentResolver. When wired to a
// conversation repo it also persists the assignment, like the real one.
type mockResolver struct {
	memberID string
	err      error
	calls    int
	repo     *mockConversationRepository
}

func (m *mockResolver) Assign(ctx context.Context, workspaceID, teamID, conversationID string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.repo != nil {
		if conv := m.repo.stored(workspaceID, conversationID); conv != nil {
			id := m.memberID
			conv.AssignedMemberID = &id
		}
	}
	return m.memberID, nil
}

// memoryCursor implements CursorStore.
type memoryCursor struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newMemoryCursor() *memoryCursor {
	return &memoryCursor{seqs: make(map[string]int64)}
}

func (c *memoryCursor) Next(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs[key]++
	return c.seqs[key], nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) countByType(eventType events.EventType) int {
	count := 0
	for _, event := range d.published {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

var (
	_ repository.ConversationRepository = (*mockConversationRepository)(nil)
	_ repository.MemberRepository       = (*mockMemberRepository)(nil)
	_ repository.TeamRepository         = (*mockTeamRepository)(nil)
	_ repository.CategoryRepository     = (*mockCategoryRepository)(nil)
	_ repository.EscalationRepository   = (*mockEscalationRepository)(nil)
	_ repository.EventRepository        = (*mockEventRepository)(nil)
	_ AssignmentResolver                = (*mockResolver)(nil)
	_ CursorStore                       = (*memoryCursor)(nil)
	_ events.Dispatcher                 = (*recordingDispatcher)(nil)
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func strPtr(val string) *string {
	return &val
}
