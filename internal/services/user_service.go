// Package services – UserService
//
// This file implements the UserService: registration with password strength
// rules and bcrypt hashing, credential checks for login, and user lookup for
// the identity middleware. Usernames are normalized (trimmed, NFKC, lower
// case) before they are stored or compared.
package services

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-bookshelf-backend/internal/auth"
	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/observability"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
)

// PasswordHasher hashes and verifies passwords. *auth.Hasher implements it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hashed, plaintext string) bool
}

// UserService implements registration, login and lookup.
type UserService struct {
	// DB is the database handle used for all user operations.
	DB *gorm.DB
	// Hasher hashes new passwords and verifies login attempts.
	Hasher PasswordHasher
}

// NewUserService wires a UserService.
func NewUserService(db *gorm.DB, h PasswordHasher) *UserService {
	return &UserService{DB: db, Hasher: h}
}

// Register creates a user.
//
// Errors:
//   - ErrUsernameRequired for a blank username.
//   - ErrWeakPassword when auth.IsPasswordAllowed rejects the password.
//   - ErrPasswordTooLong beyond auth.MaxPasswordBytes.
//   - ErrUsernameTaken when the normalized username exists.
func (s *UserService) Register(ctx context.Context, username, password string) (_ *domain.User, err error) {
	ctx, span := observability.StartSpan(ctx, "users.register")
	defer func() { observability.EndSpan(span, err) }()

	username = NormalizeUsername(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if !auth.IsPasswordAllowed(password) {
		return nil, ErrWeakPassword
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if _, err := repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !isNotFound(err) {
		return nil, err
	}

	hashed, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err := repo.CreateUser(ctx, s.DB, username, hashed)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Login returns the user whose credentials match, or ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (_ *domain.User, err error) {
	ctx, span := observability.StartSpan(ctx, "users.login")
	defer func() { observability.EndSpan(span, err) }()

	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.Hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup returns the user with the given ID or ErrUserNotFound.
func (s *UserService) Lookup(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUserByID(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// NormalizeUsername trims s, applies NFKC and lower-cases it.
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(norm.NFKC.String(s))
}
