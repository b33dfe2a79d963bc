// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Book model
// and the JSON catalog that seeds it.
//
// Books are read-only through the API; the only writer is SeedBooks, which
// upserts the catalog at startup so restarts stay idempotent.
//
// Functions:
//
//   - ReadBookByID(ctx, db, id) -> *domain.Book, error
//     Fetches one book, or ErrNotFound.
//
//   - ReadBooksByIDs(ctx, db, ids) -> map[string]domain.Book, error
//     Batch read used to expand list items in a single query.
//
//   - ListBooks(ctx, db, limit) -> []domain.Book, error
//     First books ordered by title.
//
//   - AllBooks(ctx, db) -> []domain.Book, error
//     Every book, used to build the search index.
//
//   - SeedBooks(ctx, db, books) -> error
//     Upserts books by primary key.
//
//   - LoadCatalog(path) / ReadCatalog(r) -> []domain.Book, error
//     Decode the JSON catalog file.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ReadBookByID fetches a single book by its ID. If the record does not exist,
// it returns ErrNotFound.
func ReadBookByID(ctx context.Context, db *gorm.DB, id string) (*domain.Book, error) {
	var b domain.Book
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ReadBooksByIDs returns the books whose IDs are in ids, keyed by ID. Unknown
// IDs are simply absent from the map.
func ReadBooksByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Book, error) {
	out := make(map[string]domain.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Book
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, b := range rows {
		out[b.ID] = b
	}
	return out, nil
}

// ListBooks returns up to limit books ordered by title.
func ListBooks(ctx context.Context, db *gorm.DB, limit int) ([]domain.Book, error) {
	var out []domain.Book
	err := db.WithContext(ctx).
		Order("title asc").
		Order("id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AllBooks returns the whole catalog ordered by ID.
func AllBooks(ctx context.Context, db *gorm.DB) ([]domain.Book, error) {
	var out []domain.Book
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// SeedBooks inserts books, overwriting the columns of rows that already exist.
func SeedBooks(ctx context.Context, db *gorm.DB, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "author", "cover_image_url", "page_count", "publisher", "synopsis"}),
		}).
		CreateInBatches(books, 100).Error
}

// LoadCatalog reads the JSON catalog at path.
func LoadCatalog(path string) ([]domain.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

// ReadCatalog decodes a JSON array of books. Entries without an ID or title
// are rejected so a malformed catalog fails at startup rather than at query time.
func ReadCatalog(r io.Reader) ([]domain.Book, error) {
	var books []domain.Book
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(books))
	for i, b := range books {
		if b.ID == "" || b.Title == "" {
			return nil, fmt.Errorf("catalog entry %d: id and title are required", i)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return books, nil
}
