package engine

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`

	cause error
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details []ErrorDetail `json:"details,omitempty"`
}

func NewErrorResponse(e *AppError) ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code, Details: e.Details}
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func ValidationError(msg string, details ...ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  http.StatusBadRequest,
		Message: msg,
		Details: details,
	}
}

func NotFoundError(entity, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
	}
}

func UnknownEntityError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTITY",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("Unknown entity: %s", name),
	}
}

func InvalidActionError(entity, action string) *AppError {
	return &AppError{
		Code:    "INVALID_ACTION",
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("Unsupported action %q for %s", action, entity),
	}
}

func ConflictError(msg string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Status:  http.StatusConflict,
		Message: msg,
	}
}

// StoreError reports a failed record store call. The message carries the
// cause so JSON clients of this internal tool can see it.
func StoreError(op string, err error) *AppError {
	return &AppError{
		Code:    "STORE_ERROR",
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", op, err),
		cause:   err,
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Status:  http.StatusUnauthorized,
		Message: msg,
	}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Status:  http.StatusForbidden,
		Message: msg,
	}
}

// AsAppError returns err as an *AppError, wrapping anything unrecognised as
// an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		cause:   err,
	}
}
