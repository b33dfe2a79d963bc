// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints.
//
// Conventions:
//   - Predictable client errors are written with fail() as an ErrorResponse
//     carrying a stable `code`.
//   - Anything unexpected is handed to the error responder with internal(),
//     which records the error (with a stack trace) on the Gin context. The
//     responder writes the 500 body.
//   - ok() writes success payloads, always wrapped in a named envelope such as
//     {"book": ...} or {"listItems": [...]}.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "No book found with the ID of B1"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bookshelf-backend/internal/apperror"
	"github.com/tbourn/go-bookshelf-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope for 4xx outcomes decided by handlers.
//
// Fields:
//   - RequestID: correlation ID echoed from the X-Request-ID header.
//   - Code: stable, machine-readable string (see errors.go constants).
//   - Message: human-readable description, safe to show to users.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"No book found with the ID of B1"`
}

// fail aborts the request with a structured error envelope.
//
// Statuses >= 500 are logged with the request-scoped logger; handlers should
// prefer internal() for those so the error responder renders them.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level handlers
// (NoRoute, NoMethod, rate limiting).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// internal records err for the error responder and aborts the chain.
func internal(c *gin.Context, err error) {
	_ = c.Error(apperror.Internal(err))
	c.Abort()
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
