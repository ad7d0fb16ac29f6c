package domain

import "time"

// Team represents a routing pool inside a workspace.
type Team struct {
	ID          string
	WorkspaceID string
	Name        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamMember models an operator inside a workspace. Inactive members are
// never eligible as a restore target or round-robin candidate.
type TeamMember struct {
	ID          string
	WorkspaceID string
	TeamID      *string
	Name        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
