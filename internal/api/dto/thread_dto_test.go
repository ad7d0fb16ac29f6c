package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/converso/routing-service/internal/domain"
	apperrors "github.com/converso/routing-service/pkg/util"
)

func assertPatchError(t *testing.T, body, code string) {
	t.Helper()
	_, err := ParseThreadPatch([]byte(body))
	if err == nil {
		t.Fatalf("expected error with code %q for body %s", code, body)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %q, got %q", code, domainErr.Code)
	}
}

func TestParseThreadPatchAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"camelCase", `{"ticketStatus":"pending","assignedTo":"member-1","teamId":"team-1"}`},
		{"snake_case", `{"ticket_status":"pending","assigned_to":"member-1","team_id":"team-1"}`},
		{"canonicalMemberKey", `{"ticket_status":"pending","assigned_member_id":"member-1","team_id":"team-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := ParseThreadPatch([]byte(tt.body))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if patch.TicketStatus == nil || *patch.TicketStatus != domain.TicketStatusPending {
				t.Fatalf("expected pending status, got %v", patch.TicketStatus)
			}
			if !patch.AssignedMemberIDSet || patch.AssignedMemberID == nil || *patch.AssignedMemberID != "member-1" {
				t.Fatalf("expected assigned member member-1, got %v", patch.AssignedMemberID)
			}
			if !patch.TeamIDSet || patch.TeamID == nil || *patch.TeamID != "team-1" {
				t.Fatalf("expected team team-1, got %v", patch.TeamID)
			}
		})
	}
}

func TestParseThreadPatchRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty object", `{}`, apperrors.CodeNoFields},
		{"empty body", ``, apperrors.CodeNoFields},
		{"unknown key", `{"color":"red"}`, apperrors.CodeUnknownField},
		{"unknown key beside valid", `{"priority":"high","color":"red"}`, apperrors.CodeUnknownField},
		{"array body", `[1,2]`, apperrors.CodeInvalidPayload},
		{"bad ticket status", `{"ticketStatus":"closed"}`, apperrors.CodeInvalidTicketStatus},
		{"null ticket status", `{"ticketStatus":null}`, apperrors.CodeInvalidTicketStatus},
		{"bad priority", `{"priority":"critical"}`, apperrors.CodeInvalidPriority},
		{"negative unread count", `{"unreadCount":-1}`, apperrors.CodeInvalidPayload},
		{"bad timestamp", `{"snoozedUntil":"tomorrow"}`, apperrors.CodeInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPatchError(t, tt.body, tt.code)
		})
	}
}

func TestParseThreadPatchExplicitNulls(t *testing.T) {
	patch, err := ParseThreadPatch([]byte(`{"assignedTo":null,"snoozedUntil":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !patch.AssignedMemberIDSet || patch.AssignedMemberID != nil {
		t.Fatal("null assignedTo must set the flag with a nil value")
	}
	if !patch.SnoozedUntilSet || patch.SnoozedUntil != nil {
		t.Fatal("null snoozedUntil must set the flag with a nil value")
	}
	if patch.TeamIDSet {
		t.Fatal("absent teamId must not set its flag")
	}
}

func TestParseThreadPatchTimestamps(t *testing.T) {
	patch, err := ParseThreadPatch([]byte(`{"snoozedUntil":"2025-06-01T12:00:00Z","lastReadAt":"2025-06-01T11:30:00Z"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wantSnooze := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if patch.SnoozedUntil == nil || !patch.SnoozedUntil.Equal(wantSnooze) {
		t.Fatalf("expected snooze %v, got %v", wantSnooze, patch.SnoozedUntil)
	}
	if patch.LastReadAt == nil {
		t.Fatal("expected lastReadAt to decode")
	}
}

func TestFromConversationMirrorsAssignee(t *testing.T) {
	member := "member-1"
	status := domain.SlaStatusDueSoon
	conv := &domain.Conversation{
		ID:               "conv-1",
		WorkspaceID:      "ws-1",
		ContactID:        "contact-1",
		AssignedMemberID: &member,
		TicketStatus:     domain.TicketStatusOpen,
		Priority:         domain.PriorityHigh,
		SlaStatus:        &status,
	}

	dto := FromConversation(conv)
	if dto.AssignedTo == nil || *dto.AssignedTo != member {
		t.Fatalf("expected assignedTo %s, got %v", member, dto.AssignedTo)
	}
	if dto.AssignedMemberID == nil || *dto.AssignedMemberID != member {
		t.Fatalf("expected assignedMemberId %s, got %v", member, dto.AssignedMemberID)
	}
	if dto.SlaStatus == nil || *dto.SlaStatus != "due_soon" {
		t.Fatalf("expected slaStatus due_soon, got %v", dto.SlaStatus)
	}
}
