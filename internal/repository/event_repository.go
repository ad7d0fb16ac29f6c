package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/converso/routing-service/internal/domain"
)

// EventRepository stores the append-only conversation audit trail.
// There is deliberately no update or delete.
type EventRepository interface {
	Append(ctx context.Context, event *domain.ConversationEvent) error
	ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]domain.ConversationEvent, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository builds repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.ConversationEvent) error {
	const query = `
        INSERT INTO conversation_events (workspace_id, conversation_id, type, meta, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.WorkspaceID,
		event.ConversationID,
		event.Type,
		event.Meta,
		event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *eventRepository) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]domain.ConversationEvent, error) {
	const query = `
        SELECT id, workspace_id, conversation_id, type, meta, created_by, created_at
        FROM conversation_events
        WHERE workspace_id=$1 AND conversation_id=$2
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConversationEvent
	for rows.Next() {
		var event domain.ConversationEvent
		if err := rows.Scan(
			&event.ID,
			&event.WorkspaceID,
			&event.ConversationID,
			&event.Type,
			&event.Meta,
			&event.CreatedBy,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
