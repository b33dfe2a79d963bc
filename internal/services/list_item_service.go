// Package services – ListItemService
//
// This file implements the ListItemService, which manages a user's reading
// list. It enforces one list item per (owner, book), validates ratings and
// reading dates, and returns "expanded" list items that carry their book.
// Ownership is not checked here: callers resolve an item first with Get and
// compare OwnerID so they can tell "missing" from "not yours".
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/observability"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
)

// ListItemRepo defines the repository contract required by ListItemService.
type ListItemRepo interface {
	QueryListItems(ctx context.Context, db *gorm.DB, f repo.ListItemFilter) ([]domain.ListItem, error)
	ReadListItemByID(ctx context.Context, db *gorm.DB, id string) (*domain.ListItem, error)
	CreateListItem(ctx context.Context, db *gorm.DB, ownerID, bookID string) (*domain.ListItem, error)
	UpdateListItem(ctx context.Context, db *gorm.DB, id string, p repo.ListItemPatch) (*domain.ListItem, error)
	RemoveListItem(ctx context.Context, db *gorm.DB, id string) error
	ListItemsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error)
}

// ListItemService provides reading-list operations.
type ListItemService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the list item repository.
	Repo ListItemRepo
	// Books resolves the books that list items are expanded with.
	Books BookRepo
}

// NewListItemService wires a ListItemService.
func NewListItemService(db *gorm.DB, r ListItemRepo, books BookRepo) *ListItemService {
	return &ListItemService{DB: db, Repo: r, Books: books}
}

// List returns every list item owned by ownerID, each expanded with its book.
// Books are read in one batch.
func (s *ListItemService) List(ctx context.Context, ownerID string) ([]domain.ListItem, error) {
	items, err := s.Repo.QueryListItems(ctx, s.DB, repo.ListItemFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []domain.ListItem{}, nil
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, li := range items {
		if _, ok := seen[li.BookID]; !ok {
			seen[li.BookID] = struct{}{}
			ids = append(ids, li.BookID)
		}
	}
	books, err := s.Books.ReadBooksByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ListItem, len(items))
	for i, li := range items {
		if b, ok := books[li.BookID]; ok {
			out[i] = li.WithBook(&b)
		} else {
			out[i] = li
		}
	}
	return out, nil
}

// Get returns the list item id (unexpanded) or ErrListItemNotFound.
func (s *ListItemService) Get(ctx context.Context, id string) (*domain.ListItem, error) {
	li, err := s.Repo.ReadListItemByID(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrListItemNotFound
		}
		return nil, err
	}
	return li, nil
}

// Expand returns a copy of li carrying its book. A book that has vanished
// from the catalog leaves the item unexpanded.
func (s *ListItemService) Expand(ctx context.Context, li domain.ListItem) (domain.ListItem, error) {
	b, err := s.Books.ReadBookByID(ctx, s.DB, li.BookID)
	if err != nil {
		if isNotFound(err) {
			return li, nil
		}
		return li, err
	}
	return li.WithBook(b), nil
}

// Create adds bookID to ownerID's list and returns the expanded item.
//
// Errors:
//   - ErrListItemExists when the owner already lists the book (checked first,
//     and again via the unique index to cover races).
//   - ErrBookNotFound when bookID is not in the catalog.
func (s *ListItemService) Create(ctx context.Context, ownerID, bookID string) (_ *domain.ListItem, err error) {
	ctx, span := observability.StartSpan(ctx, "list_items.create", attribute.String("book.id", bookID))
	defer func() { observability.EndSpan(span, err) }()

	existing, err := s.Repo.QueryListItems(ctx, s.DB, repo.ListItemFilter{OwnerID: ownerID, BookID: bookID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrListItemExists
	}

	book, err := s.Books.ReadBookByID(ctx, s.DB, bookID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	li, err := s.Repo.CreateListItem(ctx, s.DB, ownerID, bookID)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrListItemExists
		}
		return nil, err
	}
	expanded := li.WithBook(book)
	return &expanded, nil
}

// Update applies p to the list item current and returns the expanded result.
// current is the item as resolved by Get and is used to validate the date
// order against values the patch leaves untouched.
func (s *ListItemService) Update(ctx context.Context, current domain.ListItem, p repo.ListItemPatch) (_ *domain.ListItem, err error) {
	ctx, span := observability.StartSpan(ctx, "list_items.update", attribute.String("list_item.id", current.ID))
	defer func() { observability.EndSpan(span, err) }()

	if p.Rating != nil && (*p.Rating < domain.UnratedRating || *p.Rating > 5) {
		return nil, ErrInvalidRating
	}

	start, finish := current.StartDate, current.FinishDate
	switch {
	case p.ClearStartDate:
		start = nil
	case p.StartDate != nil:
		start = p.StartDate
	}
	switch {
	case p.ClearFinishDate:
		finish = nil
	case p.FinishDate != nil:
		finish = p.FinishDate
	}
	if start != nil && finish != nil && finish.Before(*start) {
		return nil, ErrInvalidDates
	}

	li, err := s.Repo.UpdateListItem(ctx, s.DB, current.ID, p)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrListItemNotFound
		}
		return nil, err
	}
	expanded, err := s.Expand(ctx, *li)
	if err != nil {
		return nil, err
	}
	return &expanded, nil
}

// Remove deletes the list item id.
func (s *ListItemService) Remove(ctx context.Context, id string) error {
	if err := s.Repo.RemoveListItem(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrListItemNotFound
		}
		return err
	}
	return nil
}

// Stats returns the count and latest update time of ownerID's list items.
func (s *ListItemService) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	return s.Repo.ListItemsStats(ctx, s.DB, ownerID)
}
