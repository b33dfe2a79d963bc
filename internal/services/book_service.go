// Package services – BookService
//
// This file implements the BookService, which serves the read-only book
// catalog. Searches are ranked by the in-memory search index and hydrated
// from the database in a single batch read; an empty query falls back to the
// first books by title.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/observability"
	"github.com/tbourn/go-bookshelf-backend/internal/search"
	"github.com/tbourn/go-bookshelf-backend/internal/utils"
)

// BookRepo defines the repository contract required by BookService and
// ListItemService.
type BookRepo interface {
	// ReadBookByID fetches one book or returns a not-found error.
	ReadBookByID(ctx context.Context, db *gorm.DB, id string) (*domain.Book, error)

	// ReadBooksByIDs batch-reads books keyed by ID; unknown IDs are absent.
	ReadBooksByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Book, error)

	// ListBooks returns the first limit books ordered by title.
	ListBooks(ctx context.Context, db *gorm.DB, limit int) ([]domain.Book, error)
}

// BookService provides catalog lookups and search.
type BookService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the book repository used by this service.
	Repo BookRepo
	// Index ranks books for non-empty queries. A nil index makes every
	// search behave like an empty query.
	Index search.Index

	// DefaultLimit applies when the caller passes limit <= 0.
	DefaultLimit int
	// MaxLimit caps the number of results.
	MaxLimit int
}

// NewBookService constructs a BookService with default limits (10, max 50).
func NewBookService(db *gorm.DB, r BookRepo, idx search.Index) *BookService {
	return &BookService{
		DB:           db,
		Repo:         r,
		Index:        idx,
		DefaultLimit: 10,
		MaxLimit:     50,
	}
}

// Search returns up to limit books matching query, best match first.
func (s *BookService) Search(ctx context.Context, query string, limit int) (_ []domain.Book, err error) {
	limit = s.clampLimit(limit)
	query = strings.TrimSpace(query)

	ctx, span := observability.StartSpan(ctx, "books.search",
		attribute.Int("books.limit", limit),
		attribute.Bool("books.ranked", query != "" && s.Index != nil),
	)
	defer func() { observability.EndSpan(span, err) }()

	if query == "" || s.Index == nil {
		books, err := s.Repo.ListBooks(ctx, s.DB, limit)
		if err != nil {
			return nil, err
		}
		if books == nil {
			books = []domain.Book{}
		}
		return books, nil
	}

	hits := s.Index.TopK(query, limit)
	if len(hits) == 0 {
		return []domain.Book{}, nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	byID, err := s.Repo.ReadBooksByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	// Keep ranking order; skip IDs indexed but no longer stored.
	out := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// Get returns the book with the given ID or ErrBookNotFound.
func (s *BookService) Get(ctx context.Context, id string) (*domain.Book, error) {
	b, err := s.Repo.ReadBookByID(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BookService) clampLimit(limit int) int {
	def := s.DefaultLimit
	if def <= 0 {
		def = 10
	}
	return utils.ClampLimit(limit, def, s.MaxLimit)
}
