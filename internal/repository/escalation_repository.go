package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/converso/routing-service/internal/domain"
)

// EscalationRepository persists breach records. Record is idempotent on
// the (conversation_id, breach_type, due_at) unique key so concurrent
// recomputation never duplicates a row for the same deadline.
type EscalationRepository interface {
	Record(ctx context.Context, esc *domain.Escalation) (bool, error)
	ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]domain.Escalation, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

// Record inserts the breach row, ignoring unique-key conflicts. Returns
// true when a new row was actually written.
func (r *escalationRepository) Record(ctx context.Context, esc *domain.Escalation) (bool, error) {
	const query = `
        INSERT INTO escalations (workspace_id, conversation_id, breach_type, due_at, reason)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (conversation_id, breach_type, due_at) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query,
		esc.WorkspaceID,
		esc.ConversationID,
		esc.BreachType,
		esc.DueAt,
		esc.Reason,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *escalationRepository) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]domain.Escalation, error) {
	const query = `
        SELECT id, workspace_id, conversation_id, breach_type, due_at, reason, created_at
        FROM escalations
        WHERE workspace_id=$1 AND conversation_id=$2
        ORDER BY due_at ASC`
	rows, err := r.pool.Query(ctx, query, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var esc domain.Escalation
		if err := rows.Scan(
			&esc.ID,
			&esc.WorkspaceID,
			&esc.ConversationID,
			&esc.BreachType,
			&esc.DueAt,
			&esc.Reason,
			&esc.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, esc)
	}
	return result, rows.Err()
}
