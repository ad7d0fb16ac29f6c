package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/converso/routing-service/internal/api/dto"
	"github.com/converso/routing-service/internal/auth"
	"github.com/converso/routing-service/internal/service"
	apperrors "github.com/converso/routing-service/pkg/util"
)

// RoutingHandler serves team-category mapping endpoints.
type RoutingHandler struct {
	routing *service.RoutingService
}

// NewRoutingHandler constructs handler.
func NewRoutingHandler(routing *service.RoutingService) *RoutingHandler {
	return &RoutingHandler{routing: routing}
}

// ListMappings GET /routing/mappings.
func (h *RoutingHandler) ListMappings(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	views, err := h.routing.ListMappings(c.UserContext(), principal.WorkspaceID)
	if err != nil {
		return err
	}
	items := make([]dto.MappingView, 0, len(views))
	for _, view := range views {
		items = append(items, dto.FromMappingView(view))
	}
	return c.JSON(fiber.Map{"mappings": items})
}

// UpsertMappings PUT /routing/mappings. Accepts a single mapping object
// or a {"mappings": [...]} batch.
func (h *RoutingHandler) UpsertMappings(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	requests, err := parseMappingBody(c.Body())
	if err != nil {
		return err
	}
	inputs := make([]service.MappingInput, 0, len(requests))
	for _, req := range requests {
		inputs = append(inputs, service.MappingInput{
			TeamID:     req.TeamID,
			CategoryID: req.CategoryID,
			IsActive:   req.IsActive,
		})
	}

	result, err := h.routing.UpsertMappings(c.UserContext(), service.Actor{MemberID: principal.MemberID, Role: principal.Role}, principal.WorkspaceID, inputs)
	if err != nil {
		return err
	}
	items := make([]dto.MappingView, 0, len(result.Mappings))
	for _, view := range result.Mappings {
		items = append(items, dto.FromMappingView(view))
	}
	return c.JSON(fiber.Map{
		"applied":  result.Applied,
		"dropped":  result.Dropped,
		"mappings": items,
	})
}

func parseMappingBody(body []byte) ([]dto.MappingRequest, error) {
	var batch dto.MappingBatchRequest
	if err := json.Unmarshal(body, &batch); err == nil && len(batch.Mappings) > 0 {
		return batch.Mappings, nil
	}
	var single dto.MappingRequest
	if err := json.Unmarshal(body, &single); err == nil && single.TeamID != "" {
		return []dto.MappingRequest{single}, nil
	}
	return nil, apperrors.NewValidationError(apperrors.CodeInvalidMappings, "expected a mapping object or a mappings batch")
}
