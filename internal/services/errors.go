// Package services defines the business logic for books, reading-list items,
// and users. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Book-related errors.
var (
	// ErrBookNotFound indicates that no catalog book has the requested ID.
	ErrBookNotFound = errors.New("book not found")
)

// List-item-related errors.
var (
	// ErrListItemNotFound indicates that the requested list item does not exist.
	ErrListItemNotFound = errors.New("list item not found")

	// ErrListItemExists is returned when the owner already has a list item
	// for the book.
	ErrListItemExists = errors.New("list item already exists for this book")

	// ErrInvalidRating is returned when a rating is outside -1..5.
	ErrInvalidRating = errors.New("rating must be between -1 and 5")

	// ErrInvalidDates is returned when a finish date precedes the start date.
	ErrInvalidDates = errors.New("finish date must not be before start date")
)

// User-related errors.
var (
	// ErrUsernameRequired is returned when registering with a blank username.
	ErrUsernameRequired = errors.New("username can't be blank")

	// ErrWeakPassword is returned when the password fails the strength rules.
	ErrWeakPassword = errors.New("password is not strong enough")

	// ErrPasswordTooLong is returned when the password exceeds what bcrypt
	// can hash.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username taken")

	// ErrInvalidCredentials is returned by Login for an unknown user or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("username or password is invalid")

	// ErrUserNotFound indicates that no user has the requested ID.
	ErrUserNotFound = errors.New("user not found")
)
