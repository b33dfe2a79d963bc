package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
	"github.com/tbourn/go-bookshelf-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// dbBooks and dbListItems adapt the repo free functions, like the router's shims.
type dbBooks struct{}

func (dbBooks) ReadBookByID(ctx context.Context, db *gorm.DB, id string) (*domain.Book, error) {
	return repo.ReadBookByID(ctx, db, id)
}

func (dbBooks) ReadBooksByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Book, error) {
	return repo.ReadBooksByIDs(ctx, db, ids)
}

func (dbBooks) ListBooks(ctx context.Context, db *gorm.DB, limit int) ([]domain.Book, error) {
	return repo.ListBooks(ctx, db, limit)
}

type dbListItems struct{}

func (dbListItems) QueryListItems(ctx context.Context, db *gorm.DB, f repo.ListItemFilter) ([]domain.ListItem, error) {
	return repo.QueryListItems(ctx, db, f)
}

func (dbListItems) ReadListItemByID(ctx context.Context, db *gorm.DB, id string) (*domain.ListItem, error) {
	return repo.ReadListItemByID(ctx, db, id)
}

func (dbListItems) CreateListItem(ctx context.Context, db *gorm.DB, ownerID, bookID string) (*domain.ListItem, error) {
	return repo.CreateListItem(ctx, db, ownerID, bookID)
}

func (dbListItems) UpdateListItem(ctx context.Context, db *gorm.DB, id string, p repo.ListItemPatch) (*domain.ListItem, error) {
	return repo.UpdateListItem(ctx, db, id, p)
}

func (dbListItems) RemoveListItem(ctx context.Context, db *gorm.DB, id string) error {
	return repo.RemoveListItem(ctx, db, id)
}

func (dbListItems) ListItemsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error) {
	return repo.ListItemsStats(ctx, db, ownerID)
}

func seedUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	if err := db.Create(&domain.User{ID: id, Username: id, PasswordHash: "x"}).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedBooks(t *testing.T, db *gorm.DB, books ...domain.Book) {
	t.Helper()
	if err := repo.SeedBooks(context.Background(), db, books); err != nil {
		t.Fatalf("seed books: %v", err)
	}
}
