package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/converso/routing-service/internal/domain"
)

// CategoryRepository manages routing categories and team-category
// mappings.
type CategoryRepository interface {
	ListCategories(ctx context.Context, workspaceID string) ([]domain.RoutingCategory, error)
	ListMappings(ctx context.Context, workspaceID string) ([]domain.TeamCategoryMappingView, error)
	UpsertMapping(ctx context.Context, mapping *domain.TeamCategoryMapping) error
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) ListCategories(ctx context.Context, workspaceID string) ([]domain.RoutingCategory, error) {
	const query = `
        SELECT id, workspace_id, key, label, created_at
        FROM routing_categories WHERE workspace_id=$1 ORDER BY key ASC`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RoutingCategory
	for rows.Next() {
		var cat domain.RoutingCategory
		if err := rows.Scan(&cat.ID, &cat.WorkspaceID, &cat.Key, &cat.Label, &cat.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}

// ListMappings returns mappings joined with their team and category
// display fields, restricted to the workspace's own teams and categories.
func (r *categoryRepository) ListMappings(ctx context.Context, workspaceID string) ([]domain.TeamCategoryMappingView, error) {
	const query = `
        SELECT m.id, m.team_id, m.category_id, m.is_active, m.created_at, m.updated_at,
               t.name, c.key, c.label
        FROM team_category_mappings m
        JOIN teams t ON t.id = m.team_id
        JOIN routing_categories c ON c.id = m.category_id
        WHERE t.workspace_id=$1 AND c.workspace_id=$1
        ORDER BY t.name ASC, c.key ASC`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamCategoryMappingView
	for rows.Next() {
		var view domain.TeamCategoryMappingView
		if err := rows.Scan(
			&view.ID,
			&view.TeamID,
			&view.CategoryID,
			&view.IsActive,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.TeamName,
			&view.CategoryKey,
			&view.CategoryLabel,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}

// UpsertMapping inserts or, on the (team_id, category_id) unique key,
// flips is_active on the existing row.
func (r *categoryRepository) UpsertMapping(ctx context.Context, mapping *domain.TeamCategoryMapping) error {
	const query = `
        INSERT INTO team_category_mappings (team_id, category_id, is_active)
        VALUES ($1,$2,$3)
        ON CONFLICT (team_id, category_id)
        DO UPDATE SET is_active=EXCLUDED.is_active, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		mapping.TeamID,
		mapping.CategoryID,
		mapping.IsActive,
	).Scan(&mapping.ID, &mapping.CreatedAt, &mapping.UpdatedAt)
}
