package domain

import "time"

// RoutingCategory is a workspace-defined label that inbound conversations
// are classified under before team selection.
type RoutingCategory struct {
	ID          string
	WorkspaceID string
	Key         string
	Label       string
	CreatedAt   time.Time
}

// TeamCategoryMapping links a team to a routing category. Unique per
// (team_id, category_id) pair.
type TeamCategoryMapping struct {
	ID         string
	TeamID     string
	CategoryID string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TeamCategoryMappingView is the mapping joined with display fields for
// the routing settings screen.
type TeamCategoryMappingView struct {
	TeamCategoryMapping
	TeamName      string
	CategoryKey   string
	CategoryLabel string
}
