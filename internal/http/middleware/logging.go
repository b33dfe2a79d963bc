// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides structured request logging, a panic-safe recovery handler,
// and a request ID injector. The middleware in this module aims to deliver
// production-grade observability with minimal coupling:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - Recovery() converts panics into JSON 500 responses through the error
//     responder while preserving the correlation ID and logging a stack trace.
//   - LoggerFrom() retrieves the request-scoped logger (attached by
//     RedactingLogger) to enrich logs within handlers, e.g.
//     lg.Info().Str("list_item_id", id).Msg("…").
//
// Design notes:
//   - All middleware is safe to compose in any order, but for best results:
//     1) RequestID()
//     2) RedactingLogger()
//     3) Recovery()
//     4) ErrorHandler()
//     so that panics and errors include the correlation ID and are logged.
//   - Query strings are truncated to a capped length to avoid log bloat.
//   - The request-scoped logger is stored under the "logger" Gin context key.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-bookshelf-backend/internal/apperror"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// Behavior:
//   - If the incoming request has X-Request-ID (header lookup is case-insensitive),
//     that value is reused. Otherwise, a new UUIDv4 is generated.
//   - The ID is written back to the response header (X-Request-ID) and stored
//     in the Gin context under the "requestID" key.
//
// Place this early in the chain so subsequent middleware/handlers can rely on
// the ID for logging and error responses.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// scopedLogger builds the request-scoped logger with correlation fields and
// stores it in the Gin context (key "logger") for LoggerFrom.
//
// The request ID comes from RequestID() when installed, otherwise from the
// X-Request-ID response header, then the request header.
func scopedLogger(c *gin.Context, path string) *zerolog.Logger {
	rid, _ := c.Get(requestIDKey)
	reqID := asString(rid)
	if reqID == "" {
		reqID = c.Writer.Header().Get(requestIDHeader)
	}
	if reqID == "" {
		reqID = c.GetHeader(requestIDHeader)
	}
	l := log.With().
		Str("request_id", reqID).
		Str("method", c.Request.Method).
		Str("path", path).
		Logger()
	c.Set("logger", &l)
	return &l
}

// Recovery intercepts panics, logs a stack trace, and hands the panic to the
// error responder as an unclassified error.
//
// Behavior:
//   - Logs the panic value and stack trace with the request ID.
//   - If no response has been written, responds 500 with
//     { "message": "panic: <value>", "stack": "<trace>" } (stack blanked when
//     opts.HideStack is set).
//   - If the response was already started, the status is forced to 500 and no
//     body is written.
//
// Place this after the access logger so the panic is captured with structured context.
func Recovery(opts ErrorOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				c.Header(requestIDHeader, asString(rid))
				respond(c, apperror.Internalf("panic: %v", rec), opts)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If a logger was not previously attached by RedactingLogger(), a fallback logger is
// returned (without request-scoped fields). Callers can safely use the result
// without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
//
// Note: This operates on bytes (not runes) which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
