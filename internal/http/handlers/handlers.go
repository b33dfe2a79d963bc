// Package handlers exposes the REST endpoints of the bookshelf API:
//   - GET    /books, /books/{bookId}
//   - GET    /list-items, POST /list-items
//   - GET    /list-items/{id}, PUT /list-items/{id}, DELETE /list-items/{id}
//   - POST   /auth/register, /auth/login, GET /me
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
)

//
// Service contracts (context-aware)
//

// BookService exposes the read-only catalog.
type BookService interface {
	// Search returns up to limit books, ranked when query is non-empty.
	Search(ctx context.Context, query string, limit int) ([]domain.Book, error)
	// Get returns one book or services.ErrBookNotFound.
	Get(ctx context.Context, id string) (*domain.Book, error)
}

// ListItemService manages reading-list items.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ListItemService interface {
	// List returns the owner's items, expanded with their books.
	List(ctx context.Context, ownerID string) ([]domain.ListItem, error)
	// Get returns one unexpanded item or services.ErrListItemNotFound.
	Get(ctx context.Context, id string) (*domain.ListItem, error)
	// Expand attaches the item's book.
	Expand(ctx context.Context, li domain.ListItem) (domain.ListItem, error)
	// Create adds a book to the owner's list.
	Create(ctx context.Context, ownerID, bookID string) (*domain.ListItem, error)
	// Update applies a partial update to current.
	Update(ctx context.Context, current domain.ListItem, p repo.ListItemPatch) (*domain.ListItem, error)
	// Remove deletes an item.
	Remove(ctx context.Context, id string) error
	// Stats returns the count and latest update time of the owner's items.
	Stats(ctx context.Context, ownerID string) (int64, *time.Time, error)
}

// UserService registers and authenticates users.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	bookSvc BookService
	itemSvc ListItemService
	userSvc UserService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(bookSvc BookService, itemSvc ListItemService, userSvc UserService) *Handlers {
	return &Handlers{bookSvc: bookSvc, itemSvc: itemSvc, userSvc: userSvc}
}
