// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides RequireUser, which resolves the caller from the
// X-User-ID header and stores the user in the Gin context. Failures are pushed
// with c.Error as *apperror.Error values and rendered by ErrorHandler.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bookshelf-backend/internal/apperror"
	"github.com/tbourn/go-bookshelf-backend/internal/domain"
)

const (
	// HeaderUserID carries the caller's user ID.
	HeaderUserID = "X-User-ID"

	ctxKeyUserID = "userID"
	ctxKeyUser   = "user"
)

// ErrUserNotFound is the sentinel a UserLookup returns (or wraps) for an
// unknown ID.
var ErrUserNotFound = errors.New("user not found")

// UserLookup resolves a user ID. It must return an error matching
// ErrUserNotFound (errors.Is) when the user does not exist.
type UserLookup func(ctx context.Context, id string) (*domain.User, error)

// RequireUser authenticates the request.
//
//   - No X-User-ID header: 401 credentials_required.
//   - Unknown user: 401 invalid_user.
//   - Lookup failure: unclassified error (500).
//   - Otherwise "userID" and "user" are set on the context.
func RequireUser(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id == "" {
			_ = c.Error(apperror.Unauthorized("credentials_required", "No authorization token was found"))
			c.Abort()
			return
		}

		u, err := lookup(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				_ = c.Error(apperror.Unauthorized("invalid_user", "user not found"))
			} else {
				_ = c.Error(apperror.Internal(err))
			}
			c.Abort()
			return
		}

		c.Set(ctxKeyUserID, u.ID)
		c.Set(ctxKeyUser, u)
		c.Next()
	}
}

// UserIDFrom returns the authenticated user ID, or "" outside RequireUser.
func UserIDFrom(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// UserFrom returns the authenticated user, or nil outside RequireUser.
func UserFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(ctxKeyUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
