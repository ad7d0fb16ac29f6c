package service

import (
	"context"
	"testing"
	"time"

	"github.com/converso/routing-service/internal/domain"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/sla"
	apperrors "github.com/converso/routing-service/pkg/util"
)

type slaFixture struct {
	conversations *mockConversationRepository
	escalations   *mockEscalationRepository
	dispatcher    *recordingDispatcher
	now           time.Time
	service       *SlaService
}

func newSlaFixture() *slaFixture {
	f := &slaFixture{
		conversations: newMockConversationRepository(),
		escalations:   newMockEscalationRepository(),
		dispatcher:    &recordingDispatcher{},
		now:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewSlaService(SlaDependencies{
		ConversationRepo: f.conversations,
		EscalationRepo:   f.escalations,
		Dispatcher:       f.dispatcher,
		Logger:           testLogger(),
		Clock:            func() time.Time { return f.now },
	})
	return f
}

func (f *slaFixture) seed(mutate func(*domain.Conversation)) {
	conv := &domain.Conversation{
		ID:           "conv-1",
		WorkspaceID:  "ws-1",
		ContactID:    "contact-1",
		TicketStatus: domain.TicketStatusOpen,
		Priority:     domain.PriorityMed,
	}
	if mutate != nil {
		mutate(conv)
	}
	f.conversations.put(conv)
}

func TestRecomputeNotFound(t *testing.T) {
	f := newSlaFixture()

	_, err := f.service.Recompute(context.Background(), "ws-1", "missing", nil)
	assertCode(t, err, apperrors.CodeConversationNotFound)
}

func TestRecomputeDerivesDueDates(t *testing.T) {
	f := newSlaFixture()
	lastMsg := f.now.Add(-10 * time.Minute)
	f.seed(func(conv *domain.Conversation) {
		conv.Priority = domain.PriorityUrgent
		conv.LastCustomerMessageAt = &lastMsg
	})

	conv, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", nil)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	wantResponse := lastMsg.Add(5 * time.Minute)
	if conv.NextResponseDueAt == nil || !conv.NextResponseDueAt.Equal(wantResponse) {
		t.Fatalf("expected next response due %v, got %v", wantResponse, conv.NextResponseDueAt)
	}
	wantResolution := lastMsg.Add(120 * time.Minute)
	if conv.ResolutionDueAt == nil || !conv.ResolutionDueAt.Equal(wantResolution) {
		t.Fatalf("expected resolution due %v, got %v", wantResolution, conv.ResolutionDueAt)
	}
	if conv.SlaStatus == nil || *conv.SlaStatus != domain.SlaStatusBreached {
		t.Fatalf("expected breached status, got %v", conv.SlaStatus)
	}
}

// A response deadline landing exactly on the clock reading is already a
// breach, and the breach is recorded.
func TestRecomputeBreachAtExactDeadline(t *testing.T) {
	f := newSlaFixture()
	lastMsg := f.now.Add(-30 * time.Minute) // med response budget exactly
	f.seed(func(conv *domain.Conversation) {
		conv.LastCustomerMessageAt = &lastMsg
	})

	conv, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", nil)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if conv.SlaStatus == nil || *conv.SlaStatus != domain.SlaStatusBreached {
		t.Fatalf("expected breached status at exact deadline, got %v", conv.SlaStatus)
	}
	if len(f.escalations.rows) != 1 {
		t.Fatalf("expected the response breach recorded, got %d rows", len(f.escalations.rows))
	}
}

// Downgrading priority stretches the budget: a message ten minutes old
// is breached on urgent but comfortably inside the low-priority hour.
func TestRecomputePriorityDowngradeClearsBreach(t *testing.T) {
	f := newSlaFixture()
	lastMsg := f.now.Add(-10 * time.Minute)
	f.seed(func(conv *domain.Conversation) {
		conv.Priority = domain.PriorityUrgent
		conv.LastCustomerMessageAt = &lastMsg
	})

	if _, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", nil); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	if len(f.escalations.rows) == 0 {
		t.Fatal("expected escalation for breached urgent conversation")
	}

	low := domain.PriorityLow
	conv, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", &RecomputeOverrides{Priority: &low})
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if conv.SlaStatus == nil || *conv.SlaStatus != domain.SlaStatusOK {
		t.Fatalf("expected ok status after downgrade, got %v", conv.SlaStatus)
	}
	wantResponse := lastMsg.Add(60 * time.Minute)
	if conv.NextResponseDueAt == nil || !conv.NextResponseDueAt.Equal(wantResponse) {
		t.Fatalf("expected next response due %v, got %v", wantResponse, conv.NextResponseDueAt)
	}
}

func TestRecomputeTerminalStatusClearsDeadlines(t *testing.T) {
	f := newSlaFixture()
	lastMsg := f.now.Add(-2 * time.Hour)
	due := f.now.Add(-90 * time.Minute)
	f.seed(func(conv *domain.Conversation) {
		conv.LastCustomerMessageAt = &lastMsg
		conv.NextResponseDueAt = &due
	})

	solved := domain.TicketStatusSolved
	conv, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", &RecomputeOverrides{TicketStatus: &solved})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if conv.NextResponseDueAt != nil || conv.ResolutionDueAt != nil {
		t.Fatal("terminal status must clear both deadlines")
	}
	if conv.SlaStatus == nil || *conv.SlaStatus != domain.SlaStatusOK {
		t.Fatalf("expected ok status, got %v", conv.SlaStatus)
	}
	if len(f.escalations.rows) != 0 {
		t.Fatal("terminal status must not record escalations")
	}
}

func TestRecomputeEscalationDedupe(t *testing.T) {
	f := newSlaFixture()
	lastMsg := f.now.Add(-3 * time.Hour)
	f.seed(func(conv *domain.Conversation) {
		conv.Priority = domain.PriorityUrgent
		conv.LastCustomerMessageAt = &lastMsg
	})

	for i := 0; i < 3; i++ {
		if _, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", nil); err != nil {
			t.Fatalf("recompute %d: %v", i, err)
		}
	}

	// Both deadlines are long past, so exactly one row per breach type.
	if len(f.escalations.rows) != 2 {
		t.Fatalf("expected 2 escalation rows, got %d", len(f.escalations.rows))
	}
	if got := f.dispatcher.countByType(events.EventSlaBreached); got != 2 {
		t.Fatalf("expected 2 breach events for 2 inserts, got %d", got)
	}
}

func TestRecomputeDueSoonWindow(t *testing.T) {
	f := newSlaFixture()
	lastMsg := f.now.Add(-20 * time.Minute) // med budget is 30m, 10m left
	f.seed(func(conv *domain.Conversation) {
		conv.LastCustomerMessageAt = &lastMsg
	})

	conv, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", nil)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if conv.SlaStatus == nil || *conv.SlaStatus != domain.SlaStatusDueSoon {
		t.Fatalf("expected due_soon status, got %v", conv.SlaStatus)
	}
	if len(f.escalations.rows) != 0 {
		t.Fatal("due_soon must not record escalations")
	}
}

func TestRecomputeNewMessageResetsClock(t *testing.T) {
	f := newSlaFixture()
	oldMsg := f.now.Add(-2 * time.Hour)
	f.seed(func(conv *domain.Conversation) {
		conv.LastCustomerMessageAt = &oldMsg
	})

	fresh := f.now.Add(-1 * time.Minute)
	conv, err := f.service.Recompute(context.Background(), "ws-1", "conv-1", &RecomputeOverrides{LastCustomerMessageAt: &fresh})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if conv.LastCustomerMessageAt == nil || !conv.LastCustomerMessageAt.Equal(fresh) {
		t.Fatal("override timestamp must be persisted on the conversation")
	}
	wantResponse := fresh.Add(sla.BudgetFor(domain.PriorityMed).Response)
	if conv.NextResponseDueAt == nil || !conv.NextResponseDueAt.Equal(wantResponse) {
		t.Fatalf("expected next response due %v, got %v", wantResponse, conv.NextResponseDueAt)
	}
	if conv.SlaStatus == nil || *conv.SlaStatus != domain.SlaStatusOK {
		t.Fatalf("expected ok status, got %v", conv.SlaStatus)
	}

	stored := f.conversations.stored("ws-1", "conv-1")
	if stored.LastCustomerMessageAt == nil || !stored.LastCustomerMessageAt.Equal(fresh) {
		t.Fatal("persisted row must carry the overridden timestamp")
	}
}
