package dto

import (
	"time"

	"github.com/converso/routing-service/internal/domain"
)

// MappingRequest is one requested team-category link. The write endpoint
// accepts either a single object or a batch of these.
type MappingRequest struct {
	TeamID     string `json:"teamId"`
	CategoryID string `json:"categoryId"`
	IsActive   bool   `json:"isActive"`
}

// MappingBatchRequest wraps the batch form of the write endpoint.
type MappingBatchRequest struct {
	Mappings []MappingRequest `json:"mappings"`
}

// MappingView is a mapping joined with display fields.
type MappingView struct {
	ID            string    `json:"id"`
	TeamID        string    `json:"teamId"`
	TeamName      string    `json:"teamName"`
	CategoryID    string    `json:"categoryId"`
	CategoryKey   string    `json:"categoryKey"`
	CategoryLabel string    `json:"categoryLabel"`
	IsActive      bool      `json:"isActive"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromMappingView maps the joined row to its wire shape.
func FromMappingView(view domain.TeamCategoryMappingView) MappingView {
	return MappingView{
		ID:            view.ID,
		TeamID:        view.TeamID,
		TeamName:      view.TeamName,
		CategoryID:    view.CategoryID,
		CategoryKey:   view.CategoryKey,
		CategoryLabel: view.CategoryLabel,
		IsActive:      view.IsActive,
		UpdatedAt:     view.UpdatedAt,
	}
}
