package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/converso/routing-service/internal/domain"
)

// MemberRepository handles persistence for team members.
type MemberRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.TeamMember, error)
	ListActiveByTeam(ctx context.Context, workspaceID, teamID string) ([]domain.TeamMember, error)
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository instantiates the repository.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

func (r *memberRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.TeamMember, error) {
	const query = `
        SELECT id, workspace_id, team_id, name, is_active, created_at, updated_at
        FROM team_members WHERE workspace_id=$1 AND id=$2`
	var member domain.TeamMember
	if err := r.pool.QueryRow(ctx, query, workspaceID, id).Scan(
		&member.ID,
		&member.WorkspaceID,
		&member.TeamID,
		&member.Name,
		&member.IsActive,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}

// ListActiveByTeam returns the round-robin candidate pool, oldest member
// first so cursor arithmetic is stable across calls.
func (r *memberRepository) ListActiveByTeam(ctx context.Context, workspaceID, teamID string) ([]domain.TeamMember, error) {
	const query = `
        SELECT id, workspace_id, team_id, name, is_active, created_at, updated_at
        FROM team_members
        WHERE workspace_id=$1 AND team_id=$2 AND is_active=TRUE
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workspaceID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

func scanMembers(rows pgx.Rows) ([]domain.TeamMember, error) {
	var result []domain.TeamMember
	for rows.Next() {
		var member domain.TeamMember
		if err := rows.Scan(
			&member.ID,
			&member.WorkspaceID,
			&member.TeamID,
			&member.Name,
			&member.IsActive,
			&member.CreatedAt,
			&member.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}
