package service

import (
	"context"
	"testing"

	"github.com/converso/routing-service/internal/domain"
	apperrors "github.com/converso/routing-service/pkg/util"
)

func newRoutingFixture() (*RoutingService, *mockCategoryRepository) {
	teams := &mockTeamRepository{teams: []domain.Team{
		{ID: "team-1", WorkspaceID: "ws-1", Name: "Billing", IsActive: true},
		{ID: "team-2", WorkspaceID: "ws-1", Name: "Support", IsActive: true},
		{ID: "team-x", WorkspaceID: "ws-2", Name: "Other workspace", IsActive: true},
	}}
	categories := newMockCategoryRepository(teams)
	categories.categories = []domain.RoutingCategory{
		{ID: "cat-1", WorkspaceID: "ws-1", Key: "billing", Label: "Billing"},
		{ID: "cat-2", WorkspaceID: "ws-1", Key: "refunds", Label: "Refunds"},
		{ID: "cat-x", WorkspaceID: "ws-2", Key: "other", Label: "Other"},
	}
	service := NewRoutingService(RoutingDependencies{
		CategoryRepo: categories,
		TeamRepo:     teams,
		Dispatcher:   &recordingDispatcher{},
		Logger:       testLogger(),
	})
	return service, categories
}

func admin() Actor {
	return Actor{MemberID: "admin-1", Role: domain.RoleAdmin}
}

func TestUpsertMappingsDropsForeignIDs(t *testing.T) {
	service, categories := newRoutingFixture()

	result, err := service.UpsertMappings(context.Background(), admin(), "ws-1", []MappingInput{
		{TeamID: "team-1", CategoryID: "cat-1", IsActive: true},
		{TeamID: "team-x", CategoryID: "cat-1", IsActive: true}, // team from ws-2
		{TeamID: "team-1", CategoryID: "cat-x", IsActive: true}, // category from ws-2
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if result.Applied != 1 || result.Dropped != 2 {
		t.Fatalf("expected 1 applied / 2 dropped, got %d / %d", result.Applied, result.Dropped)
	}
	if len(categories.mappings) != 1 {
		t.Fatalf("expected exactly one persisted mapping, got %d", len(categories.mappings))
	}
	if len(result.Mappings) != 1 || result.Mappings[0].CategoryKey != "billing" {
		t.Fatalf("expected refreshed billing mapping, got %v", result.Mappings)
	}
}

func TestUpsertMappingsRejectsAllInvalidBatch(t *testing.T) {
	service, categories := newRoutingFixture()

	_, err := service.UpsertMappings(context.Background(), admin(), "ws-1", []MappingInput{
		{TeamID: "team-x", CategoryID: "cat-x", IsActive: true},
	})
	assertCode(t, err, apperrors.CodeInvalidMappings)
	if len(categories.mappings) != 0 {
		t.Fatal("rejected batch must not persist anything")
	}
}

func TestUpsertMappingsUpdatesExistingRow(t *testing.T) {
	service, categories := newRoutingFixture()

	if _, err := service.UpsertMappings(context.Background(), admin(), "ws-1", []MappingInput{
		{TeamID: "team-1", CategoryID: "cat-1", IsActive: true},
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := service.UpsertMappings(context.Background(), admin(), "ws-1", []MappingInput{
		{TeamID: "team-1", CategoryID: "cat-1", IsActive: false},
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if len(categories.mappings) != 1 {
		t.Fatalf("expected single row after repeated upsert, got %d", len(categories.mappings))
	}
	for _, mapping := range categories.mappings {
		if mapping.IsActive {
			t.Fatal("expected repeated upsert to flip is_active off")
		}
	}
}

func TestListMappingsScopedToWorkspace(t *testing.T) {
	service, _ := newRoutingFixture()

	if _, err := service.UpsertMappings(context.Background(), admin(), "ws-1", []MappingInput{
		{TeamID: "team-1", CategoryID: "cat-1", IsActive: true},
		{TeamID: "team-2", CategoryID: "cat-2", IsActive: true},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	views, err := service.ListMappings(context.Background(), "ws-2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("ws-2 must not see ws-1 mappings, got %v", views)
	}
}
