package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Stable wire codes returned as the JSON `error` field. Clients key
// messaging off these, so they never change.
const (
	CodeFeatureDisabled      = "feature_disabled"
	CodeForbidden            = "forbidden"
	CodeUnauthorized         = "unauthorized"
	CodeConversationNotFound = "conversation_not_found"
	CodeNotTakenOver         = "not_taken_over"
	CodeAlreadyTakenOver     = "already_taken_over"
	CodeInvalidTicketStatus  = "invalid_ticket_status"
	CodeInvalidPriority      = "invalid_priority"
	CodeNoFields             = "no_fields"
	CodeUnknownField         = "unknown_field"
	CodeInvalidMappings      = "invalid_mappings"
	CodeInvalidPayload       = "invalid_payload"
	CodeInternal             = "internal_error"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(code, message string) error {
	return NewDomainError(code, message, http.StatusBadRequest, nil)
}

func NewConversationNotFound(conversationID string) error {
	return &DomainError{
		Code:       CodeConversationNotFound,
		Message:    "conversation not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"conversation_id": conversationID},
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewFeatureDisabled(flag string) error {
	return NewDomainError(CodeFeatureDisabled, fmt.Sprintf("%s is disabled", flag), http.StatusForbidden, nil)
}

func NewConflict(code, message string) error {
	return NewDomainError(code, message, http.StatusConflict, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &DomainError{
			Code:       CodeConversationNotFound,
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
