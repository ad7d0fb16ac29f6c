package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/converso/routing-service/internal/api/dto"
	"github.com/converso/routing-service/internal/auth"
	"github.com/converso/routing-service/internal/service"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// ThreadsHandler serves conversation thread endpoints.
type ThreadsHandler struct {
	threads  *service.ThreadService
	takeover *service.TakeoverService
}

// NewThreadsHandler constructs handler.
func NewThreadsHandler(threads *service.ThreadService, takeover *service.TakeoverService) *ThreadsHandler {
	return &ThreadsHandler{threads: threads, takeover: takeover}
}

// GetThread GET /threads/:id.
func (h *ThreadsHandler) GetThread(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	conv, err := h.threads.GetThread(c.UserContext(), principal.WorkspaceID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"thread": dto.FromConversation(conv)})
}

// History GET /threads/:id/history.
func (h *ThreadsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	history, err := h.threads.GetThreadHistory(c.UserContext(), principal.WorkspaceID, c.Params("id"))
	if err != nil {
		return err
	}
	eventItems := make([]dto.ConversationEventDTO, 0, len(history.Events))
	for _, event := range history.Events {
		eventItems = append(eventItems, dto.FromConversationEvent(event))
	}
	escalationItems := make([]dto.EscalationDTO, 0, len(history.Escalations))
	for _, esc := range history.Escalations {
		escalationItems = append(escalationItems, dto.FromEscalation(esc))
	}
	return c.JSON(fiber.Map{
		"events":      eventItems,
		"escalations": escalationItems,
	})
}

// UpdateThread POST /threads/:id/update.
func (h *ThreadsHandler) UpdateThread(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	patch, err := dto.ParseThreadPatch(c.Body())
	if err != nil {
		return err
	}
	conv, err := h.threads.UpdateThread(c.UserContext(), actorFrom(principal), principal.WorkspaceID, c.Params("id"), service.ThreadUpdateInput{
		TicketStatus:        patch.TicketStatus,
		Priority:            patch.Priority,
		AssignedMemberID:    patch.AssignedMemberID,
		AssignedMemberIDSet: patch.AssignedMemberIDSet,
		TeamID:              patch.TeamID,
		TeamIDSet:           patch.TeamIDSet,
		UnreadCount:         patch.UnreadCount,
		IsArchived:          patch.IsArchived,
		Pinned:              patch.Pinned,
		SnoozedUntil:        patch.SnoozedUntil,
		SnoozedUntilSet:     patch.SnoozedUntilSet,
		LastReadAt:          patch.LastReadAt,
		LastReadAtSet:       patch.LastReadAtSet,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"thread": dto.FromConversation(conv)})
}

// Takeover POST /threads/:id/takeover.
func (h *ThreadsHandler) Takeover(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	conv, err := h.takeover.Takeover(c.UserContext(), actorFrom(principal), principal.WorkspaceID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"thread": dto.FromConversation(conv)})
}

// Release POST /threads/:id/release.
func (h *ThreadsHandler) Release(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	conv, err := h.takeover.Release(c.UserContext(), actorFrom(principal), principal.WorkspaceID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"thread": dto.FromConversation(conv)})
}

func actorFrom(principal *auth.Principal) service.Actor {
	return service.Actor{MemberID: principal.MemberID, Role: principal.Role}
}
