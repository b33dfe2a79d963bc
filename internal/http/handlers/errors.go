// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes appear in the ErrorResponse envelope written by fail() for
// predictable 4xx outcomes. Authorization failures and unexpected errors do
// not use them: they are pushed with c.Error and rendered by the error
// responder middleware with its own bodies.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror HTTP status semantics.
//   - Domain codes name the rule that was broken so clients can branch on it.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "list_item_exists",
//	  "message": "User 42 already has a list item for the book with the ID B1"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeListItemExists   = "list_item_exists"
	ErrCodeInvalidRating    = "invalid_rating"
	ErrCodeInvalidDates     = "invalid_dates"
	ErrCodeUsernameRequired = "username_required"
	ErrCodeWeakPassword     = "weak_password"
	ErrCodePasswordTooLong  = "password_too_long"
	ErrCodeUsernameTaken    = "username_taken"
)
