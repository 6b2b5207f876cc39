package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeNotificationDelivery = "NOTIFICATION_DELIVERY"
	CodeInternal             = "INTERNAL_ERROR"
)

var (
	// ErrStaleRecord is returned by versioned updates when the stored version moved on.
	ErrStaleRecord = errors.New("record was modified concurrently")
	// ErrSelfReference marks attempts to point a user relationship at the same user.
	ErrSelfReference = errors.New("self reference")
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewSelfReferenceError is a validation error for follow attempts that target the actor.
func NewSelfReferenceError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Err:     ErrSelfReference,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError reports that the actor does not own the resource.
// The message never includes details of the resource itself.
func NewForbiddenError(resource string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: "not permitted to modify this " + resource,
	}
}

func NewConflictError(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s was modified concurrently, retry the request", resource),
		Err:     err,
	}
}

// NewNotificationDeliveryError reports notifications that could not be written
// after the triggering change was already persisted.
func NewNotificationDeliveryError(err error) *AppError {
	return &AppError{
		Code:    CodeNotificationDelivery,
		Message: "some notifications could not be delivered",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
