// Package domain holds the error taxonomy and small shared types used by every
// bounded context in the service.
package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a DomainError for transport mapping.
type ErrorCode string

const (
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeForbidden    ErrorCode = "FORBIDDEN"
)

// DomainError is an expected business failure. Anything that is not a
// DomainError is treated as an internal error by the transport layer.
type DomainError struct {
	Code    ErrorCode
	Message string
	// Field names the offending request field for validation errors.
	Field string
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError reports malformed or missing input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NewFieldValidationError reports malformed or missing input for a named field.
func NewFieldValidationError(field, message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message, Field: field}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewConflictError reports a write that lost against concurrent state.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewInvalidStateError reports a lifecycle transition that is not allowed.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewForbiddenError reports an operation the caller may not perform.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsValidation(err error) bool   { return CodeOf(err) == CodeValidation }
func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }
func IsForbidden(err error) bool    { return CodeOf(err) == CodeForbidden }

// AsDomainError unwraps err to its DomainError, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
