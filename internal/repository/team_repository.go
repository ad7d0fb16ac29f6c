package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/converso/routing-service/internal/domain"
)

// TeamRepository manages persistence for teams.
type TeamRepository interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Team, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Team, error) {
	const query = `
        SELECT id, workspace_id, name, is_active, created_at, updated_at
        FROM teams WHERE workspace_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.WorkspaceID, &team.Name, &team.IsActive, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}
