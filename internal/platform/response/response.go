// Package response writes the JSON envelopes shared by every handler.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/innhub/service-reservation/internal/platform/domain"
)

// ErrorBody is the error half of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Success writes 200 with {success, data}.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes 201 with {success, data}.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// Paginated writes a page of items with its paging metadata.
func Paginated[T any](c *gin.Context, result domain.PaginatedResult[T]) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Items,
		"pagination": gin.H{
			"total":      result.Total,
			"page":       result.Page,
			"limit":      result.Limit,
			"totalPages": result.TotalPages,
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, ErrorBody{Code: string(domain.CodeValidation), Message: message})
}

func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, ErrorBody{Code: "UNAUTHORIZED", Message: message})
}

func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, ErrorBody{Code: string(domain.CodeForbidden), Message: message})
}

// Error maps err onto a status code. Errors outside the domain taxonomy are
// reported as 500 with a generic message; the detail reaches the access log
// through c.Error.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	status, body := classify(err)
	abort(c, status, body)
}

func classify(err error) (int, ErrorBody) {
	code := domain.CodeOf(err)
	if code == "" {
		return http.StatusInternalServerError, ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		}
	}

	var field, message string
	if de, ok := domain.AsDomainError(err); ok {
		field, message = de.Field, de.Message
	}
	body := ErrorBody{Code: string(code), Message: message, Field: field}

	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest, body
	case domain.CodeNotFound:
		return http.StatusNotFound, body
	case domain.CodeConflict, domain.CodeInvalidState:
		return http.StatusConflict, body
	case domain.CodeForbidden:
		return http.StatusForbidden, body
	default:
		return http.StatusInternalServerError, body
	}
}

func abort(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, errorEnvelope{Success: false, Error: body})
}
