package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/converso/routing-service/internal/domain"
)

// ConversationRepository encapsulates conversation persistence. All
// operations are scoped by (workspace_id, id); a miss in another tenant
// is indistinguishable from a miss.
type ConversationRepository interface {
	GetByID(ctx context.Context, workspaceID, id string) (*domain.Conversation, error)
	Update(ctx context.Context, conv *domain.Conversation) error
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository instantiates repository.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

const conversationColumns = `
        id, workspace_id, contact_id, team_id, assigned_member_id,
        takeover_by_member_id, takeover_prev_assigned_member_id, takeover_at,
        ticket_status, priority,
        last_customer_message_at, next_response_due_at, resolution_due_at, sla_status,
        unread_count, is_archived, pinned, snoozed_until, last_read_at, last_message_at,
        created_at, updated_at`

func (r *conversationRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Conversation, error) {
	query := `SELECT` + conversationColumns + `
        FROM conversations WHERE workspace_id=$1 AND id=$2`
	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, workspaceID, id).Scan(
		&conv.ID,
		&conv.WorkspaceID,
		&conv.ContactID,
		&conv.TeamID,
		&conv.AssignedMemberID,
		&conv.TakeoverByMemberID,
		&conv.TakeoverPrevAssignedMemberID,
		&conv.TakeoverAt,
		&conv.TicketStatus,
		&conv.Priority,
		&conv.LastCustomerMessageAt,
		&conv.NextResponseDueAt,
		&conv.ResolutionDueAt,
		&conv.SlaStatus,
		&conv.UnreadCount,
		&conv.IsArchived,
		&conv.Pinned,
		&conv.SnoozedUntil,
		&conv.LastReadAt,
		&conv.LastMessageAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        UPDATE conversations SET
            team_id=$1, assigned_member_id=$2,
            takeover_by_member_id=$3, takeover_prev_assigned_member_id=$4, takeover_at=$5,
            ticket_status=$6, priority=$7,
            last_customer_message_at=$8, next_response_due_at=$9, resolution_due_at=$10, sla_status=$11,
            unread_count=$12, is_archived=$13, pinned=$14, snoozed_until=$15, last_read_at=$16,
            updated_at=NOW()
        WHERE workspace_id=$17 AND id=$18`
	cmd, err := r.pool.Exec(ctx, query,
		conv.TeamID,
		conv.AssignedMemberID,
		conv.TakeoverByMemberID,
		conv.TakeoverPrevAssignedMemberID,
		conv.TakeoverAt,
		conv.TicketStatus,
		conv.Priority,
		conv.LastCustomerMessageAt,
		conv.NextResponseDueAt,
		conv.ResolutionDueAt,
		conv.SlaStatus,
		conv.UnreadCount,
		conv.IsArchived,
		conv.Pinned,
		conv.SnoozedUntil,
		conv.LastReadAt,
		conv.WorkspaceID,
		conv.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
