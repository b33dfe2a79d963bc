// Package domain defines the persistence models for users, books, and reading
// list items. These types are mapped with GORM and shared across the
// repository, service, and HTTP layers.
package domain

import "time"

// UnratedRating is the rating of a list item the owner has not rated yet.
const UnratedRating = -1

// User is an account that owns list items.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Username: unique login name.
//   - PasswordHash: bcrypt hash; never serialized.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID           string    `json:"id"       gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	PasswordHash string    `json:"-"        gorm:"type:varchar(72);not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Book is an entry of the catalog. Books are seeded at startup and are
// read-only through the API.
type Book struct {
	ID            string `json:"id"            gorm:"type:varchar(64);primaryKey"`
	Title         string `json:"title"         gorm:"type:varchar(255);not null;index:idx_books_title"`
	Author        string `json:"author"        gorm:"type:varchar(255);not null"`
	CoverImageURL string `json:"coverImageUrl" gorm:"type:varchar(512)"`
	PageCount     int    `json:"pageCount"`
	Publisher     string `json:"publisher"     gorm:"type:varchar(255)"`
	Synopsis      string `json:"synopsis"      gorm:"type:text"`
}

// TableName returns the database table name for Book.
func (Book) TableName() string { return "books" }

// ListItem is a book on a user's reading list. A user has at most one list
// item per book (enforced by unique index).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - OwnerID: the owning user (cascade-deleted with the user).
//   - BookID: the catalog book.
//   - Rating: -1 (unrated) or 0..5.
//   - Notes: free text.
//   - StartDate / FinishDate: optional reading dates.
//   - Book: populated in responses only ("expanded" list item).
type ListItem struct {
	ID         string     `json:"id"         gorm:"type:char(36);primaryKey"`
	OwnerID    string     `json:"ownerId"    gorm:"type:char(36);not null;index:idx_list_items_owner;uniqueIndex:ux_list_items_owner_book,priority:1"`
	BookID     string     `json:"bookId"     gorm:"type:varchar(64);not null;uniqueIndex:ux_list_items_owner_book,priority:2"`
	Rating     int        `json:"rating"     gorm:"not null;check:rating BETWEEN -1 AND 5"`
	Notes      string     `json:"notes"      gorm:"type:text;not null;default:''"`
	StartDate  *time.Time `json:"startDate"`
	FinishDate *time.Time `json:"finishDate"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	Owner User  `json:"-"              gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Book  *Book `json:"book,omitempty" gorm:"-"`
}

// TableName returns the database table name for ListItem.
func (ListItem) TableName() string { return "list_items" }

// WithBook returns a copy of li carrying book.
func (li ListItem) WithBook(book *Book) ListItem {
	li.Book = book
	return li
}
