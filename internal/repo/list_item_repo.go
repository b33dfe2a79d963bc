// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ListItem model.
//
// Error semantics:
//   - A missing list item yields gorm.ErrRecordNotFound (ErrNotFound).
//   - A second item for the same (owner_id, book_id) violates the unique index
//     and the raw DB error is returned; services translate it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
)

// ListItemFilter narrows QueryListItems. Empty fields are ignored.
type ListItemFilter struct {
	OwnerID string
	BookID  string
}

// ListItemPatch carries the columns UpdateListItem may change. Nil fields are
// left untouched; ClearStartDate/ClearFinishDate set the column to NULL.
type ListItemPatch struct {
	Rating          *int
	Notes           *string
	StartDate       *time.Time
	FinishDate      *time.Time
	ClearStartDate  bool
	ClearFinishDate bool
}

// Empty reports whether the patch changes nothing.
func (p ListItemPatch) Empty() bool {
	return p.Rating == nil && p.Notes == nil && p.StartDate == nil && p.FinishDate == nil &&
		!p.ClearStartDate && !p.ClearFinishDate
}

// QueryListItems returns list items matching f, oldest first.
func QueryListItems(ctx context.Context, db *gorm.DB, f ListItemFilter) ([]domain.ListItem, error) {
	q := db.WithContext(ctx)
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.BookID != "" {
		q = q.Where("book_id = ?", f.BookID)
	}
	var out []domain.ListItem
	err := q.Order("created_at asc").Order("id asc").Find(&out).Error
	return out, err
}

// ReadListItemByID fetches a single list item by ID regardless of owner.
// Ownership is checked by the caller so it can distinguish 404 from 403.
func ReadListItemByID(ctx context.Context, db *gorm.DB, id string) (*domain.ListItem, error) {
	var li domain.ListItem
	if err := db.WithContext(ctx).Where("id = ?", id).First(&li).Error; err != nil {
		return nil, err
	}
	return &li, nil
}

// CreateListItem inserts an unrated list item for (ownerID, bookID).
func CreateListItem(ctx context.Context, db *gorm.DB, ownerID, bookID string) (*domain.ListItem, error) {
	now := time.Now().UTC()
	li := &domain.ListItem{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		BookID:    bookID,
		Rating:    domain.UnratedRating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(li).Error; err != nil {
		return nil, err
	}
	return li, nil
}

// UpdateListItem applies p to the list item id and returns the stored row.
// An empty patch only re-reads the row.
func UpdateListItem(ctx context.Context, db *gorm.DB, id string, p ListItemPatch) (*domain.ListItem, error) {
	if !p.Empty() {
		cols := map[string]any{"updated_at": time.Now().UTC()}
		if p.Rating != nil {
			cols["rating"] = *p.Rating
		}
		if p.Notes != nil {
			cols["notes"] = *p.Notes
		}
		switch {
		case p.ClearStartDate:
			cols["start_date"] = nil
		case p.StartDate != nil:
			cols["start_date"] = p.StartDate.UTC()
		}
		switch {
		case p.ClearFinishDate:
			cols["finish_date"] = nil
		case p.FinishDate != nil:
			cols["finish_date"] = p.FinishDate.UTC()
		}

		res := db.WithContext(ctx).
			Model(&domain.ListItem{}).
			Where("id = ?", id).
			Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return ReadListItemByID(ctx, db, id)
}

// RemoveListItem deletes the list item id. If no rows are affected it returns
// ErrNotFound.
func RemoveListItem(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ListItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
