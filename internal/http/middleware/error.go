// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the error responder: the single place where failures
// pushed by handlers and middleware become HTTP responses.
//
//   - RespondError is framework-free. Given an *apperror.Error and the state of
//     the in-flight response it either writes exactly one response or forwards
//     the error, never both.
//   - ErrorHandler adapts RespondError to Gin. It runs the rest of the chain,
//     takes the last error recorded with c.Error, and responds.
//
// Response bodies:
//
//	401 { "code": "<code>", "message": "<message>" }        authorization failures
//	500 { "message": "<message>", "stack": "<stack trace>" } everything else
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bookshelf-backend/internal/apperror"
)

// ResponseState is the part of an in-flight HTTP response the responder needs.
type ResponseState interface {
	// HeadersSent reports whether the status line and headers were flushed.
	HeadersSent() bool
	// Status sets the status code of the pending response.
	Status(code int)
	// JSON writes body as the JSON payload of the pending response.
	JSON(body any)
}

// AuthorizationBody is the 401 payload.
type AuthorizationBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InternalBody is the 500 payload.
type InternalBody struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// RespondError turns err into an HTTP response.
//
//   - If res has already sent headers, next is called with err unchanged and
//     res is not touched.
//   - Authorization failures get 401 with {code, message}.
//   - Anything else gets 500 with {message, stack}.
func RespondError(err *apperror.Error, res ResponseState, next func(error)) {
	if res.HeadersSent() {
		next(err)
		return
	}
	if err.IsAuthorization() {
		res.Status(http.StatusUnauthorized)
		res.JSON(AuthorizationBody{Code: err.Code, Message: err.Message})
		return
	}
	res.Status(http.StatusInternalServerError)
	res.JSON(InternalBody{Message: err.Message, Stack: err.Stack})
}

// ErrorOptions configures ErrorHandler and Recovery.
type ErrorOptions struct {
	// HideStack blanks the stack field of 500 bodies. The stack is still
	// available to logs through the error itself.
	HideStack bool
}

// ErrorHandler returns a Gin middleware that renders the last error pushed
// with c.Error through RespondError. Errors are normalized with
// apperror.From, so plain errors become unclassified failures.
//
// When the response was already started the error is only logged through the
// request-scoped logger; it stays on c.Errors for the access log.
//
// Place it after the logger and Recovery so their view of the status is final.
func ErrorHandler(opts ErrorOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		respond(c, last.Err, opts)
	}
}

// respond classifies pushed with apperror.From and runs RespondError against
// c. A forwarded error is logged as pushed, not as its classified wrapper.
func respond(c *gin.Context, pushed error, opts ErrorOptions) {
	err := apperror.From(pushed)
	outcome := "responded"
	RespondError(err, &ginResponse{c: c, hideStack: opts.HideStack}, func(error) {
		outcome = "forwarded"
		LoggerFrom(c).Error().
			Err(pushed).
			Int("status", c.Writer.Status()).
			Msg("error after response started")
	})
	errResponses.WithLabelValues(err.Kind.String(), outcome).Inc()
}

// ginResponse implements ResponseState over a gin.Context.
type ginResponse struct {
	c         *gin.Context
	hideStack bool
}

func (r *ginResponse) HeadersSent() bool { return r.c.Writer.Written() }

func (r *ginResponse) Status(code int) { r.c.Status(code) }

func (r *ginResponse) JSON(body any) {
	if b, ok := body.(InternalBody); ok && r.hideStack {
		b.Stack = ""
		body = b
	}
	r.c.AbortWithStatusJSON(r.c.Writer.Status(), body)
}
